// Package cart keeps each user's shopping cart in a Redis hash and checks it out into an order.
package cart

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const cartTTL = 30 * 24 * time.Hour

type Item struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Store 购物车存储: hash cart:<user_id>, field product id, value quantity.
type Store struct {
	rdb *redis.Client
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func key(userID uint) string {
	return fmt.Sprintf("cart:%d", userID)
}

// Add increments the quantity of productID and returns the new quantity.
func (s *Store) Add(ctx context.Context, userID, productID uint, qty int) (int, error) {
	k := key(userID)
	pipe := s.rdb.TxPipeline()
	incr := pipe.HIncrBy(ctx, k, strconv.FormatUint(uint64(productID), 10), int64(qty))
	pipe.Expire(ctx, k, cartTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return int(incr.Val()), nil
}

// Set overwrites the quantity of productID.
func (s *Store) Set(ctx context.Context, userID, productID uint, qty int) error {
	k := key(userID)
	pipe := s.rdb.TxPipeline()
	pipe.HSet(ctx, k, strconv.FormatUint(uint64(productID), 10), qty)
	pipe.Expire(ctx, k, cartTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Remove(ctx context.Context, userID, productID uint) error {
	return s.rdb.HDel(ctx, key(userID), strconv.FormatUint(uint64(productID), 10)).Err()
}

// Items returns the cart ordered by product id. Corrupt fields are skipped.
func (s *Store) Items(ctx context.Context, userID uint) ([]Item, error) {
	val, err := s.rdb.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(val))
	for k, v := range val {
		productID, err1 := strconv.ParseUint(k, 10, 64)
		quantity, err2 := strconv.Atoi(v)
		if err1 != nil || err2 != nil || quantity < 1 {
			log.Printf("[Cart] skipping bad entry %s=%s in %s", k, v, key(userID))
			continue
		}
		items = append(items, Item{ProductID: uint(productID), Quantity: quantity})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ProductID < items[j].ProductID })
	return items, nil
}

func (s *Store) Empty(ctx context.Context, userID uint) error {
	return s.rdb.Del(ctx, key(userID)).Err()
}
