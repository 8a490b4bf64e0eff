package product

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

var allowedImageExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageStore writes uploaded product images below Root and addresses them under URLPrefix.
type ImageStore struct {
	Root      string
	URLPrefix string
}

func NewImageStore(root, urlPrefix string) *ImageStore {
	return &ImageStore{Root: root, URLPrefix: strings.TrimRight(urlPrefix, "/")}
}

// Save copies fh to products/<unixnano><ext> and returns its public URL.
func (s *ImageStore) Save(fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowedImageExt[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	dir := filepath.Join(s.Root, "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d%s", time.Now().UnixNano(), ext)
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return path.Join(s.URLPrefix, "products", name), nil
}

// Remove deletes a file previously returned by Save. Unknown URLs are ignored.
func (s *ImageStore) Remove(url string) {
	rel := strings.TrimPrefix(url, s.URLPrefix+"/")
	if rel == url {
		return
	}
	_ = os.Remove(filepath.Join(s.Root, filepath.FromSlash(rel)))
}

func supportedImage(filename string) bool {
	return allowedImageExt[strings.ToLower(filepath.Ext(filename))]
}
