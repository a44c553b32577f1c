// Package main implements the storefront command line client. It restores
// the cart/session state, runs one command against it, and exits; the same
// synchronizer drives the interactive shells and kiosks.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/merchbay/storefront/internal/api"
	"github.com/merchbay/storefront/internal/cartsync"
	"github.com/merchbay/storefront/internal/config"
	"github.com/merchbay/storefront/internal/domain/cart"
	"github.com/merchbay/storefront/internal/notify"
	"github.com/merchbay/storefront/internal/storage"
	"github.com/merchbay/storefront/internal/storage/file"
	"github.com/merchbay/storefront/internal/storage/memory"
	"github.com/merchbay/storefront/internal/storage/redis"
	"github.com/merchbay/storefront/pkg/logger"
)

const usage = `usage: storefront [flags] <command> [args]

Session:
  login <email> <password>    Authenticate and adopt the server cart
  logout                      Clear the session and the cart
  status                      Show session state and cart summary

Cart:
  cart                        Print the current cart
  add <product-id> [qty]      Add a product to the cart
  update <line-id> <qty>      Change a line's quantity
  remove <line-id>            Remove a line
  clear                       Empty the cart locally

Catalog:
  products [category] [term]  List products
  product <id>                Show one product with its reviews

Account:
  orders                      List order history
  favorites                   List favorite products
  notifications               List notifications
`

func main() {
	configPath := flag.String("config", "", "Path to config file (default config/storefront.yaml)")
	apiURL := flag.String("api", "", "Backend base URL (overrides config)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	// A .env file is optional; ignore its absence.
	_ = godotenv.Load()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadFromPath(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := api.NewClient(api.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout(),
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	})
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	durable, closeStore, err := openDurable(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer closeStore()

	appLog := logger.NewDefault("storefront")
	sync, err := cartsync.New(cartsync.Config{
		Remote:    client,
		Durable:   durable,
		Ephemeral: memory.New(),
		Notify:    notify.NewLogSink(appLog),
		Log:       appLog,
	})
	if err != nil {
		log.Fatalf("Failed to create synchronizer: %v", err)
	}

	if err := sync.Restore(ctx); err != nil {
		// The cart still works offline; report and continue.
		log.Printf("Restore incomplete: %v", err)
	}

	if err := run(ctx, sync, client, args); err != nil {
		log.Fatalf("%v", err)
	}
}

// openDurable picks the durable tier: redis when configured, otherwise a
// local JSON file.
func openDurable(ctx context.Context, cfg config.StorageConfig) (storage.Store, func(), error) {
	if cfg.RedisAddr != "" {
		store, err := redis.New(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}
	return file.New(cfg.Path), func() {}, nil
}

func run(ctx context.Context, sync *cartsync.Synchronizer, client *api.Client, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		if len(rest) != 2 {
			return fmt.Errorf("usage: login <email> <password>")
		}
		sess, err := client.Login(ctx, rest[0], rest[1])
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if err := sync.Login(ctx, sess); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Printf("Logged in as %s\n", sess.DisplayName)
		printCart(sync.Cart())
		return nil

	case "logout":
		if err := sync.Logout(ctx); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Println("Logged out")
		return nil

	case "status":
		sess := sync.Session()
		fmt.Printf("State: %s\n", sync.State())
		if sess.UserID != "" {
			fmt.Printf("User:  %s (%s)\n", sess.DisplayName, sess.UserID)
		}
		lines := sync.Cart()
		fmt.Printf("Cart:  %d lines, total %.2f\n", len(lines), cart.Total(lines))
		return nil

	case "cart":
		printCart(sync.Cart())
		return nil

	case "add":
		if len(rest) < 1 || len(rest) > 2 {
			return fmt.Errorf("usage: add <product-id> [qty]")
		}
		qty := 1
		if len(rest) == 2 {
			n, err := strconv.Atoi(rest[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", rest[1])
			}
			qty = n
		}
		if err := sync.AddItem(ctx, rest[0], qty); err != nil {
			return fmt.Errorf("add: %w", err)
		}
		printCart(sync.Cart())
		return nil

	case "update":
		if len(rest) != 2 {
			return fmt.Errorf("usage: update <line-id> <qty>")
		}
		qty, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("invalid quantity %q", rest[1])
		}
		if err := sync.UpdateQuantity(ctx, rest[0], qty); err != nil {
			return fmt.Errorf("update: %w", err)
		}
		printCart(sync.Cart())
		return nil

	case "remove":
		if len(rest) != 1 {
			return fmt.Errorf("usage: remove <line-id>")
		}
		if err := sync.RemoveItem(ctx, rest[0]); err != nil {
			return fmt.Errorf("remove: %w", err)
		}
		printCart(sync.Cart())
		return nil

	case "clear":
		if err := sync.ClearCart(ctx); err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		fmt.Println("Cart cleared")
		return nil

	case "products":
		var category, search string
		if len(rest) > 0 {
			category = rest[0]
		}
		if len(rest) > 1 {
			search = rest[1]
		}
		products, err := client.Products(ctx, category, search)
		if err != nil {
			return err
		}
		for _, p := range products {
			fmt.Printf("%-16s %-24s %8.2f  %s\n", p.ID, p.Name, p.Price, p.Category)
		}
		return nil

	case "product":
		if len(rest) != 1 {
			return fmt.Errorf("usage: product <id>")
		}
		p, err := client.Product(ctx, rest[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s) %.2f\n%s\n", p.Name, p.ID, p.Price, p.Description)
		reviews, err := client.Reviews(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, r := range reviews {
			fmt.Printf("  [%d/5] %s: %s\n", r.Rating, r.Author, r.Comment)
		}
		return nil

	case "orders":
		orders, err := client.Orders(ctx)
		if err != nil {
			return err
		}
		for _, o := range orders {
			fmt.Printf("%s  %-10s %8.2f  %s\n", o.PlacedAt.Format("2006-01-02"), o.Status, o.Total, o.ID)
		}
		return nil

	case "favorites":
		products, err := client.Favorites(ctx)
		if err != nil {
			return err
		}
		for _, p := range products {
			fmt.Printf("%-16s %-24s %8.2f\n", p.ID, p.Name, p.Price)
		}
		return nil

	case "notifications":
		notes, err := client.Notifications(ctx)
		if err != nil {
			return err
		}
		for _, n := range notes {
			marker := " "
			if !n.Read {
				marker = "*"
			}
			fmt.Printf("%s %s  %s\n", marker, n.CreatedAt.Format("2006-01-02"), n.Message)
		}
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printCart(lines []cart.Line) {
	if len(lines) == 0 {
		fmt.Println("Cart is empty")
		return
	}
	for _, l := range lines {
		fmt.Printf("%3dx %-24s %8.2f  %s\n", l.Quantity, l.Name, l.UnitPrice*float64(l.Quantity), l.LineID)
	}
	fmt.Printf("Total: %.2f\n", cart.Total(lines))
}

func init() {
	log.SetFlags(log.LstdFlags)
	log.SetPrefix("[storefront] ")
}
