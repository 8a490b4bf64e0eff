package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"go-storefront/pkg/jwt"
)

// 统计器
type tally struct {
	mu      sync.Mutex
	success int
	limited int
	failed  int
}

func (t *tally) add(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case code == http.StatusCreated:
		t.success++
	case code == http.StatusTooManyRequests:
		t.limited++
	default:
		t.failed++
	}
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

func post(url, token string, body any) (int, envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, envelope{}, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, envelope{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, envelope{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, envelope{}, err
	}
	var env envelope
	_ = json.Unmarshal(raw, &env)
	return resp.StatusCode, env, nil
}

// register creates a throwaway buyer, backing off while the register limit is hit.
func register(base string, run int64, i int) (int64, error) {
	body := map[string]string{
		"username": fmt.Sprintf("load-%d-%d", run, i),
		"email":    fmt.Sprintf("load-%d-%d@example.com", run, i),
		"password": "load-test-password",
	}
	for attempt := 0; attempt < 20; attempt++ {
		code, env, err := post(base+"/api/auth/register", "", body)
		if err != nil {
			return 0, err
		}
		if code == http.StatusTooManyRequests {
			time.Sleep(250 * time.Millisecond)
			continue
		}
		if code != http.StatusCreated {
			return 0, fmt.Errorf("register: %d %s", code, env.Msg)
		}
		var u struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(env.Data, &u); err != nil {
			return 0, err
		}
		return u.ID, nil
	}
	return 0, fmt.Errorf("register: still rate limited")
}

func main() {
	base := flag.String("url", "http://localhost:8080", "API base URL")
	secret := flag.String("secret", "my_secret_key", "jwt.secret of the API") // 必须与 Gateway 一致
	productID := flag.Int("product", 1, "product id to order")
	users := flag.Int("users", 50, "concurrent buyers")
	flag.Parse()

	tokens := jwt.NewManager(*secret, time.Hour)
	run := time.Now().Unix()

	log.Printf("registering %d buyers...", *users)
	buyers := make([]string, 0, *users)
	for i := 0; i < *users; i++ {
		id, err := register(*base, run, i)
		if err != nil {
			log.Fatalf("buyer %d: %v", i, err)
		}
		token, err := tokens.GenerateToken(id, fmt.Sprintf("load-%d-%d", run, i), "user")
		if err != nil {
			log.Fatalf("token: %v", err)
		}
		buyers = append(buyers, token)
	}

	order := map[string]any{
		"items":            []map[string]int{{"product_id": *productID, "quantity": 1}},
		"shipping_name":    "Load Test",
		"shipping_email":   "load@example.com",
		"shipping_address": "1 Bench St",
		"shipping_city":    "Austin",
		"shipping_state":   "TX",
		"shipping_zip":     "73301",
		"shipping_country": "US",
	}

	fmt.Printf("🚀 开始下单压测, 参与人数: %d\n", len(buyers))
	fmt.Println("------------------------------------------------")

	var (
		wg  sync.WaitGroup
		res tally
	)
	start := time.Now()
	for i, token := range buyers {
		wg.Add(1)
		go func(i int, token string) {
			defer wg.Done()
			code, env, err := post(*base+"/api/orders", token, order)
			if err != nil {
				fmt.Printf("[Buyer %d] 请求失败: %v\n", i, err)
				res.add(0)
				return
			}
			if code == http.StatusCreated {
				fmt.Printf("🟢 [Buyer %d] 下单成功\n", i)
			} else {
				fmt.Printf("🔴 [Buyer %d] %d %s\n", i, code, env.Msg)
			}
			res.add(code)
		}(i, token)
	}
	wg.Wait()

	fmt.Println("------------------------------------------------")
	fmt.Printf("🏁 测试结束，耗时: %v\n", time.Since(start))
	fmt.Printf("✅ 成功: %d\n", res.success)
	fmt.Printf("⏳ 被限流: %d\n", res.limited)
	fmt.Printf("❌ 失败: %d\n", res.failed)
}
