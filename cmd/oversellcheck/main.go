// Command oversellcheck hammers one catalog item with concurrent single-line
// checkouts and verifies that exactly the initial stock sells and the
// conservation invariant holds. It needs a running MySQL and Redis.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smallstore/pos/internal/adapter/storage"
	"github.com/smallstore/pos/internal/core/domain"
	"github.com/smallstore/pos/internal/core/service"
)

const (
	mysqlDSN      = "root:root@tcp(localhost:3306)/smallstore?parseTime=true"
	redisAddr     = "localhost:6379"
	itemName      = "oversell-check-item"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Reset the test item
	_, err = db.ExecContext(ctx, `
		INSERT INTO items (name, unit_price, stock, version) VALUES (?, 5, ?, 0)
		ON DUPLICATE KEY UPDATE stock = ?, version = 0`,
		itemName, initialStock, initialStock)
	if err != nil {
		log.Fatalf("failed to seed item: %v", err)
	}
	db.ExecContext(ctx, `DELETE FROM sale_entries WHERE item_name = ?`, itemName)

	mysqlAdapter := storage.NewMySQLAdapter(db)
	redisAdapter := storage.NewRedisAdapter(rdb)
	checkout := service.NewCheckoutService(mysqlAdapter, mysqlAdapter, redisAdapter, nil, zap.NewNop())

	var successCount atomic.Int32
	var failCount atomic.Int32
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			cart := domain.NewCart(uuid.NewString(), 1)
			if _, err := cart.Append(itemName, 1); err != nil {
				failCount.Add(1)
				return
			}
			lines, err := cart.Finalize()
			if err != nil {
				failCount.Add(1)
				return
			}

			if _, err := checkout.Commit(ctx, cart.ID, lines); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	var finalStock, soldTotal int
	db.QueryRowContext(ctx, `SELECT stock FROM items WHERE name = ?`, itemName).Scan(&finalStock)
	db.QueryRowContext(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM sale_entries WHERE item_name = ?`, itemName).Scan(&soldTotal)

	success := successCount.Load()
	fail := failCount.Load()

	fmt.Println("========== OVERSELL CHECK RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Failed:           %d\n", fail)
	fmt.Printf("Final Stock:      %d\n", finalStock)
	fmt.Printf("Sale Quantity:    %d\n", soldTotal)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("============================================")

	if success == int32(initialStock) && finalStock == 0 && soldTotal == initialStock {
		fmt.Println("PASS: stock conserved, no oversell")
	} else {
		fmt.Printf("FAIL: expected %d successes with final stock 0 and %d sold, got %d/%d/%d\n",
			initialStock, initialStock, success, finalStock, soldTotal)
	}
}
