package integration_test

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	adaptconfig "github.com/mercatto/catalog/internal/adapters/config"
	adaptmongo "github.com/mercatto/catalog/internal/adapters/mongo"
	"github.com/mercatto/catalog/internal/adapters/mongo/repository"
	"github.com/mercatto/catalog/internal/adapters/outbox"
	adaptrabbitmq "github.com/mercatto/catalog/internal/adapters/rabbitmq"
	adaptredis "github.com/mercatto/catalog/internal/adapters/redis"
	"github.com/mercatto/catalog/internal/core/domain"
	"github.com/mercatto/catalog/internal/core/dto"
	"github.com/mercatto/catalog/internal/core/service"
	"github.com/mercatto/catalog/internal/core/serviceerrors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcrabbit "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	mongoClient  *mongo.Client
	redisClient  *adaptredis.Client
	broker       *adaptrabbitmq.RabbitMQAdapter
	amqpEndpoint string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	if err != nil {
		log.Fatalf("mongodb container: %v", err)
	}
	mongoEndpoint, err := mongoContainer.ConnectionString(ctx)
	if err != nil {
		log.Fatalf("mongodb connection string: %v", err)
	}
	mongoClient, err = mongo.Connect(ctx, options.Client().
		ApplyURI(mongoEndpoint).
		SetDirect(true).
		SetConnectTimeout(30*time.Second).
		SetServerSelectionTimeout(30*time.Second))
	if err != nil {
		log.Fatalf("mongodb connect: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("mongodb ping: %v", err)
	}

	// --- Redis ---
	redisContainer, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		log.Fatalf("redis container: %v", err)
	}
	redisEndpoint, err := redisContainer.ConnectionString(ctx)
	if err != nil {
		log.Fatalf("redis connection string: %v", err)
	}
	redisClient, err = adaptredis.NewConnection(adaptconfig.RedisConfig{URL: redisEndpoint})
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}

	// --- RabbitMQ ---
	rabbitContainer, err := tcrabbit.Run(ctx, "rabbitmq:3-management-alpine")
	if err != nil {
		log.Fatalf("rabbitmq container: %v", err)
	}
	amqpEndpoint, err = rabbitContainer.AmqpURL(ctx)
	if err != nil {
		log.Fatalf("rabbitmq amqp url: %v", err)
	}
	broker, err = adaptrabbitmq.NewRabbitMQAdapter(adaptconfig.RabbitMQConfig{
		URL:        amqpEndpoint,
		MaxRetries: 2,
		RetryDelay: 100 * time.Millisecond,
		ExchangeConfigs: []adaptconfig.ExchangeConfig{
			{Name: "exchange.product", Type: "direct", Durable: true, AutoDelete: false},
		},
	})
	if err != nil {
		log.Fatalf("rabbitmq adapter: %v", err)
	}

	code := m.Run()

	_ = broker.Close()
	_ = redisClient.Close()
	_ = mongoClient.Disconnect(ctx)
	_ = mongoContainer.Terminate(ctx)
	_ = redisContainer.Terminate(ctx)
	_ = rabbitContainer.Terminate(ctx)

	os.Exit(code)
}

func intPtr(v int) *int {
	return &v
}

func setupConsumer(t *testing.T, routingKey string) <-chan amqp.Delivery {
	t.Helper()

	conn, err := amqp.Dial(amqpEndpoint)
	if err != nil {
		t.Fatalf("consumer dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	ch, err := conn.Channel()
	if err != nil {
		t.Fatalf("consumer channel: %v", err)
	}
	t.Cleanup(func() { ch.Close() })

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		t.Fatalf("queue declare: %v", err)
	}
	if err := ch.QueueBind(q.Name, routingKey, "exchange.product", false, nil); err != nil {
		t.Fatalf("queue bind: %v", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, false, false, false, nil)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	return msgs
}

func buildService(t *testing.T, dbName string) (*service.ProductService, *outbox.Handler) {
	t.Helper()
	db := mongoClient.Database(dbName)

	txManager := adaptmongo.NewTransactionManager(mongoClient)
	outboxRepo := repository.NewOutboxRepository(db)
	productRepo := repository.NewProductRepository(db, outboxRepo, txManager)

	productCache := adaptredis.NewCache[domain.Product](redisClient, dbName+"-product")
	idempotencyCache := adaptredis.NewCache[service.IdempotencyEntry[domain.Product]](redisClient, dbName+"-idemp")
	idempotencyService := service.NewIdempotencyService(idempotencyCache, 5*time.Minute, 500*time.Millisecond, 10*time.Second)

	productService := service.NewProductService(productRepo, productCache, idempotencyService)

	outboxHandler := outbox.NewHandler(outboxRepo, broker, adaptconfig.OutboxConfig{
		Interval:  100 * time.Millisecond,
		BatchSize: 50,
	})

	return productService, outboxHandler
}

func TestIntegration_ProductLifecycle_FullCycle(t *testing.T) {
	createdMsgs := setupConsumer(t, "product.created")
	updatedMsgs := setupConsumer(t, "product.updated")
	deletedMsgs := setupConsumer(t, "product.deleted")

	productSvc, outboxHandler := buildService(t, "int_full_cycle")
	ctx := context.Background()

	handlerCtx, cancelHandler := context.WithCancel(ctx)
	defer cancelHandler()
	go outboxHandler.Start(handlerCtx)

	product, err := productSvc.CreateProduct(ctx, "", &dto.CreateProductRequest{
		Name:        "Integration Beans",
		Price:       12.5,
		Unit:        &dto.ProductUnitInput{Unit: "kg", Count: 1},
		Count:       intPtr(40),
		Description: "e2e",
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if product.ID == "" {
		t.Fatal("product ID should not be empty")
	}

	select {
	case msg := <-createdMsgs:
		var event domain.ProductCreatedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			t.Fatalf("unmarshal created event: %v", err)
		}
		if event.ProductID != product.ID {
			t.Fatalf("created event product_id: expected %s, got %s", product.ID, event.ProductID)
		}
		if event.Name != "Integration Beans" {
			t.Fatalf("created event name: got %q", event.Name)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for product.created event")
	}

	updated, err := productSvc.UpdateProduct(ctx, product.ID, &dto.UpdateProductRequest{
		Name:        "Integration Beans Dark",
		Price:       13.0,
		Unit:        &dto.ProductUnitInput{Unit: "kg", Count: 1},
		Count:       intPtr(35),
		Description: "e2e updated",
	})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if updated.Name != "Integration Beans Dark" {
		t.Fatalf("expected updated name, got %q", updated.Name)
	}

	select {
	case msg := <-updatedMsgs:
		var event domain.ProductUpdatedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			t.Fatalf("unmarshal updated event: %v", err)
		}
		if event.ProductID != product.ID {
			t.Fatalf("updated event product_id: expected %s, got %s", product.ID, event.ProductID)
		}
		if event.Count != 35 {
			t.Fatalf("updated event count: expected 35, got %d", event.Count)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for product.updated event")
	}

	if err := productSvc.DeleteProduct(ctx, product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}

	select {
	case msg := <-deletedMsgs:
		var event domain.ProductDeletedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			t.Fatalf("unmarshal deleted event: %v", err)
		}
		if event.ProductID != product.ID {
			t.Fatalf("deleted event product_id: expected %s, got %s", product.ID, event.ProductID)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for product.deleted event")
	}

	_, err = productSvc.GetByID(ctx, product.ID)
	if !serviceerrors.IsOfKind(err, serviceerrors.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestIntegration_CreateProduct_Idempotency(t *testing.T) {
	productSvc, _ := buildService(t, "int_idempotency")
	ctx := context.Background()

	request := &dto.CreateProductRequest{
		Name:  "Idemp Beans",
		Price: 10.0,
		Count: intPtr(100),
	}

	product1, err := productSvc.CreateProduct(ctx, "idemp-key-1", request)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	product2, err := productSvc.CreateProduct(ctx, "idemp-key-1", request)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if product2.ID != product1.ID {
		t.Fatalf("expected same product: %s vs %s", product1.ID, product2.ID)
	}

	// Only one document stored
	_, total, err := productSvc.List(ctx, domain.ListParams{Name: "Idemp Beans", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected 1 product (single insert), got %d", total)
	}
}

func TestIntegration_CreateProduct_IdempotencyKeyReusedWithDifferentPayload(t *testing.T) {
	productSvc, _ := buildService(t, "int_idemp_conflict")
	ctx := context.Background()

	_, err := productSvc.CreateProduct(ctx, "idemp-key-2", &dto.CreateProductRequest{
		Name: "Original", Price: 10.0, Count: intPtr(1),
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err = productSvc.CreateProduct(ctx, "idemp-key-2", &dto.CreateProductRequest{
		Name: "Tampered", Price: 99.0, Count: intPtr(9),
	})
	if !serviceerrors.IsOfKind(err, serviceerrors.KindUnprocessableEntity) {
		t.Fatalf("expected KindUnprocessableEntity for payload mismatch, got %v", err)
	}
}

func TestIntegration_ListProducts_FilterSortPaginate(t *testing.T) {
	productSvc, _ := buildService(t, "int_list")
	ctx := context.Background()

	seed := []*dto.CreateProductRequest{
		{Name: "Arabica Beans", Price: 12.5, Count: intPtr(40), Description: "medium roast"},
		{Name: "Robusta Beans", Price: 9.0, Count: intPtr(60), Description: "strong and earthy"},
		{Name: "Olive Oil", Price: 18.0, Count: intPtr(25), Description: "extra virgin"},
	}
	for _, req := range seed {
		if _, err := productSvc.CreateProduct(ctx, "", req); err != nil {
			t.Fatalf("seed create: %v", err)
		}
	}

	products, total, err := productSvc.List(ctx, domain.ListParams{Search: "beans", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Fatalf("expected 2 bean products, got total %d len %d", total, len(products))
	}

	page1, total, err := productSvc.List(ctx, domain.ListParams{
		Sort:  []domain.SortField{{Key: "price", Descending: true}},
		Page:  1,
		Limit: 2,
	})
	if err != nil {
		t.Fatalf("list page 1: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(page1) != 2 || page1[0].Name != "Olive Oil" {
		t.Fatalf("expected Olive Oil first by price desc, got %+v", page1)
	}

	page2, _, err := productSvc.List(ctx, domain.ListParams{
		Sort:  []domain.SortField{{Key: "price", Descending: true}},
		Page:  2,
		Limit: 2,
	})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page2) != 1 || page2[0].Name != "Robusta Beans" {
		t.Fatalf("expected Robusta Beans on page 2, got %+v", page2)
	}
}

func TestIntegration_GetProductByID_Cache(t *testing.T) {
	productSvc, _ := buildService(t, "int_cache")
	ctx := context.Background()

	product, err := productSvc.CreateProduct(ctx, "", &dto.CreateProductRequest{
		Name: "Cache Beans", Price: 15.0, Count: intPtr(20),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	f1, err := productSvc.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("first get: %v", err)
	}

	// Second fetch → cache hit
	f2, err := productSvc.GetByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("second get: %v", err)
	}

	if f1.ID != f2.ID || f1.Price != f2.Price {
		t.Fatal("cached product should match original")
	}
}
