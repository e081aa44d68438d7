// Command sequoia-browse walks a resource collection of a Sequoia service
// and prints every resource reference it finds, following the page cursor
// chain to the end.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jose-oc/sequoia-client-go/pkg/auth"
	"github.com/jose-oc/sequoia-client-go/pkg/client"
	"github.com/jose-oc/sequoia-client-go/pkg/logging"
	"github.com/jose-oc/sequoia-client-go/pkg/pagination"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Configuration from environment
	registryURL := getEnv("SEQUOIA_REGISTRY_URL", "")
	clientID := getEnv("SEQUOIA_CLIENT_ID", "")
	clientSecret := getEnv("SEQUOIA_CLIENT_SECRET", "")
	owner := getEnv("SEQUOIA_OWNER", "")
	serviceName := getEnv("SEQUOIA_SERVICE", "metadata")
	resourceName := getEnv("SEQUOIA_RESOURCE", "contents")
	redisURL := getEnv("REDIS_URL", "")
	logLevel := getEnv("LOG_LEVEL", "info")

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(logLevel),
		Pretty: true,
		Output: os.Stderr,
	})

	if registryURL == "" || owner == "" {
		logger.Fatal().Msg("SEQUOIA_REGISTRY_URL and SEQUOIA_OWNER are required")
	}

	credentials := auth.NoAuth()
	if clientID != "" {
		credentials = auth.ClientGrant(clientID, clientSecret)
	}

	// An optional Redis token store lets concurrent invocations share one token
	if redisURL != "" && credentials.Type == auth.TypeClientGrant {
		redisClient := redis.NewClient(&redis.Options{Addr: redisURL})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			cancel()
			logger.Fatal().Err(err).Str("redis_url", redisURL).Msg("Failed to connect to Redis")
		}
		cancel()
		credentials.Store = auth.NewRedisTokenStore(redisClient)
		logger.Info().Str("redis_url", redisURL).Msg("Token store connected")
	}

	ctx := context.Background()

	c, err := client.New(ctx, client.Config{
		RegistryURL:     registryURL,
		Auth:            credentials,
		UserAgent:       "sequoia-browse/0.1.0",
		ModelResolution: true,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create Sequoia client")
	}

	proxy, err := c.Service(ctx, serviceName)
	if err != nil {
		logger.Fatal().Err(err).Str("service", serviceName).Msg("Service not available")
	}

	browser, err := proxy.Resource(resourceName).Browse(ctx, owner, client.BrowseOptions{})
	if err != nil {
		logger.Fatal().Err(err).Str("resource", resourceName).Msg("Browse failed")
	}

	total := 0
	pages := 0
	for {
		page, err := browser.Next(ctx)
		if errors.Is(err, pagination.ErrNoMorePages) {
			break
		}
		if err != nil {
			logger.Fatal().Err(err).Msg("Page fetch failed")
		}

		pages++
		for _, resource := range page.Resources() {
			fmt.Println(resource.Ref())
			total++
		}
	}

	logger.Info().
		Str("service", serviceName).
		Str("resource", resourceName).
		Int("pages", pages).
		Int("resources", total).
		Msg("Browse complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
