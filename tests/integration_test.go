package tests

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/smallstore/pos/internal/adapter/storage"
	"github.com/smallstore/pos/internal/core/domain"
	"github.com/smallstore/pos/internal/core/service"
)

type testEnv struct {
	mysql *sql.DB
	redis *redis.Client
	store *storage.MySQLAdapter
	cache *storage.RedisAdapter
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		mysqlDSN = "root:root@tcp(localhost:3306)/smallstore?parseTime=true"
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	db, err := sql.Open("mysql", mysqlDSN)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	env := &testEnv{
		mysql: db,
		redis: rdb,
		store: storage.NewMySQLAdapter(db),
		cache: storage.NewRedisAdapter(rdb),
	}
	t.Cleanup(func() {
		rdb.Close()
		db.Close()
	})
	return env
}

func (e *testEnv) seedItem(t *testing.T, name string, price, stock int) {
	t.Helper()
	_, err := e.mysql.ExecContext(context.Background(), `
		INSERT INTO items (name, unit_price, stock, version) VALUES (?, ?, ?, 0)
		ON DUPLICATE KEY UPDATE unit_price = ?, stock = ?, version = 0`,
		name, price, stock, price, stock)
	if err != nil {
		t.Fatalf("seed item %s: %v", name, err)
	}
	e.mysql.ExecContext(context.Background(), `DELETE FROM sale_entries WHERE item_name = ?`, name)
}

func (e *testEnv) itemStock(t *testing.T, name string) int {
	t.Helper()
	var stock int
	if err := e.mysql.QueryRowContext(context.Background(),
		`SELECT stock FROM items WHERE name = ?`, name).Scan(&stock); err != nil {
		t.Fatalf("read stock %s: %v", name, err)
	}
	return stock
}

func (e *testEnv) soldQuantity(t *testing.T, name string) int {
	t.Helper()
	var sold int
	if err := e.mysql.QueryRowContext(context.Background(),
		`SELECT COALESCE(SUM(quantity), 0) FROM sale_entries WHERE item_name = ?`, name).Scan(&sold); err != nil {
		t.Fatalf("read sold quantity %s: %v", name, err)
	}
	return sold
}

func TestIntegration_ConcurrentLastUnit(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	itemName := "it-last-unit"
	env.seedItem(t, itemName, 5, 1)

	checkout := service.NewCheckoutService(env.store, env.store, env.cache, nil, zap.NewNop())

	var successCount, failCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lines := []domain.LineItem{{Seq: 1, ItemName: itemName, Quantity: 1}}
			if _, err := checkout.Commit(ctx, uuid.NewString(), lines); err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}
	wg.Wait()

	if successCount.Load() != 1 || failCount.Load() != 1 {
		t.Errorf("expected exactly one success, got %d successes / %d failures",
			successCount.Load(), failCount.Load())
	}
	if got := env.itemStock(t, itemName); got != 0 {
		t.Errorf("expected stock 0, got %d", got)
	}
	if got := env.soldQuantity(t, itemName); got != 1 {
		t.Errorf("expected 1 unit in sale history, got %d", got)
	}
}

func TestIntegration_Conservation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	itemName := "it-conservation"
	initialStock := 30
	env.seedItem(t, itemName, 5, initialStock)

	checkout := service.NewCheckoutService(env.store, env.store, env.cache, nil, zap.NewNop())

	totalCommits := 20
	perCommit := 2

	var successCount atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < totalCommits; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			lines := []domain.LineItem{{Seq: 1, ItemName: itemName, Quantity: perCommit}}
			if _, err := checkout.Commit(ctx, fmt.Sprintf("it-conservation-%s", uuid.NewString()), lines); err == nil {
				successCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	finalStock := env.itemStock(t, itemName)
	sold := env.soldQuantity(t, itemName)

	if finalStock < 0 {
		t.Errorf("stock went negative: %d", finalStock)
	}
	if committed := int(successCount.Load()) * perCommit; initialStock-finalStock != committed {
		t.Errorf("conservation violated: stock dropped by %d but %d committed",
			initialStock-finalStock, committed)
	}
	if sold != initialStock-finalStock {
		t.Errorf("sale history records %d sold but stock dropped by %d", sold, initialStock-finalStock)
	}
}

func TestIntegration_FullSessionFlow(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	itemName := "it-session-item"
	env.seedItem(t, itemName, 4, 12)

	_, err := env.mysql.ExecContext(ctx, `
		INSERT INTO passwords (password_key, password_string) VALUES (9100, 'sesame')
		ON DUPLICATE KEY UPDATE password_string = 'sesame'`)
	if err != nil {
		t.Fatalf("seed password: %v", err)
	}
	_, err = env.mysql.ExecContext(ctx, `
		INSERT INTO staff (name, password_key) VALUES ('it-cashier', 9100)
		ON DUPLICATE KEY UPDATE password_key = 9100`)
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}

	nop := zap.NewNop()
	session := service.NewSession(
		env.store,
		service.NewCartService(env.store, nil, nop),
		service.NewCheckoutService(env.store, env.store, env.cache, nil, nop),
		service.NewCatalogService(env.store, env.cache, nop),
		nop,
	)

	if err := session.Login(ctx, "it-cashier", "sesame"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := session.Add(ctx, itemName, 3); err != nil {
		t.Fatalf("add: %v", err)
	}

	_, total, err := session.Finalize(ctx)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if total != 12 {
		t.Errorf("expected display total 12, got %d", total)
	}

	result, err := session.Pay(ctx)
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if result.Total != 12 {
		t.Errorf("expected receipt total 12, got %d", result.Total)
	}

	if got := env.itemStock(t, itemName); got != 9 {
		t.Errorf("expected stock 9, got %d", got)
	}
	if got := env.soldQuantity(t, itemName); got != 3 {
		t.Errorf("expected 3 units sold, got %d", got)
	}
}
