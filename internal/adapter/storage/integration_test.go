//go:build integration

package storage

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	testRedis *redis.Client
	testMongo *mongo.Client
)

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	hostConfig := func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	}

	redisResource, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: "redis", Tag: "7"}, hostConfig)
	if err != nil {
		log.Fatalf("Could not start Redis resource: %s", err)
	}
	mongoResource, err := pool.RunWithOptions(&dockertest.RunOptions{Repository: "mongo", Tag: "6.0"}, hostConfig)
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}

	if err := pool.Retry(func() error {
		var errRetry error
		testRedis, errRetry = NewRedisClient(context.Background(), redisResource.GetHostPort("6379/tcp"), "", 0)
		return errRetry
	}); err != nil {
		log.Fatalf("Could not connect to Redis: %s", err)
	}

	mongoURI := fmt.Sprintf("mongodb://%s", mongoResource.GetHostPort("27017/tcp"))
	if err := pool.Retry(func() error {
		var errRetry error
		testMongo, errRetry = ConnectMongo(context.Background(), mongoURI)
		return errRetry
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}

	code := m.Run()

	_ = testRedis.Close()
	_ = testMongo.Disconnect(context.Background())
	_ = pool.Purge(redisResource)
	_ = pool.Purge(mongoResource)
	os.Exit(code)
}

func TestRedisStore_Integration(t *testing.T) {
	exerciseStore(t, NewRedisStore(testRedis))
}

func TestMongoStore_Integration(t *testing.T) {
	exerciseStore(t, NewMongoStore(testMongo.Database("airbrb_client_test")))
}
