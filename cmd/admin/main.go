package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/tendant/simple-storefront/pkg/storefront"
	"github.com/tendant/simple-storefront/pkg/storefront/config"
)

const usage = `Storefront Admin CLI

Maintenance commands that only need access to the configured database.

USAGE:
  admin <command> [options]

COMMANDS:
  bootstrap   Create the first admin account (no-op when one exists)
  stats       Show product and blog post counts
  sitemap     Print the XML sitemap

ENVIRONMENT VARIABLES:
  DATABASE_TYPE     memory, mongo or postgres (default: memory)
  MONGO_URI         MongoDB connection string
  MONGO_DB_NAME     MongoDB database name (default: dessert_ecommerce)
  DATABASE_URL      PostgreSQL connection string
  ADMIN_USERNAME    Username for bootstrap (default: admin)
  ADMIN_PASSWORD    Password for bootstrap
  BASE_URL          Site root used by sitemap

  Configuration can be loaded from a .env file in the current directory.
  Command line environment variables override .env file values.

EXAMPLES:
  admin bootstrap --username=admin --password=s3cret
  admin stats --json
  admin sitemap --base-url=https://shop.example.com

OPTIONS:
  --username=<name>   Admin username (bootstrap)
  --password=<pass>   Admin password (bootstrap)
  --base-url=<url>    Site root (sitemap)
  --json              Output as JSON (stats)
`

func main() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	command := os.Args[1]
	if command == "help" || command == "--help" || command == "-h" {
		fmt.Print(usage)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rt, err := cfg.Build(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to build storefront: %v", err)
	}
	defer rt.Close(context.Background())

	flags := parseFlags(os.Args[2:])

	switch command {
	case "bootstrap":
		handleBootstrap(ctx, rt.Admin, flags)
	case "stats":
		handleStats(ctx, rt.Admin, flags)
	case "sitemap":
		handleSitemap(ctx, rt.SiteIndex, cfg, flags)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func handleBootstrap(ctx context.Context, admin *storefront.AdminService, flags map[string]string) {
	username := firstNonEmpty(flags["username"], os.Getenv("ADMIN_USERNAME"), "admin")
	password := firstNonEmpty(flags["password"], os.Getenv("ADMIN_PASSWORD"))

	user, err := admin.BootstrapAdmin(ctx, username, password)
	if errors.Is(err, storefront.ErrAdminExists) {
		fmt.Println("Admin user already exists.")
		return
	}
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	fmt.Printf("Admin user '%s' created (id %s).\n", user.Username, user.ID)
}

func handleStats(ctx context.Context, admin *storefront.AdminService, flags map[string]string) {
	stats, err := admin.Dashboard(ctx)
	if err != nil {
		log.Fatalf("Failed to get stats: %v", err)
	}

	if _, ok := flags["json"]; ok {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			log.Fatalf("Failed to encode stats: %v", err)
		}
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLLECTION\tCOUNT")
	fmt.Fprintf(w, "products\t%d\n", stats.TotalProducts)
	fmt.Fprintf(w, "blog_posts\t%d\n", stats.TotalBlogPosts)
	w.Flush()
}

func handleSitemap(ctx context.Context, builder *storefront.SiteIndexBuilder, cfg *config.ServerConfig, flags map[string]string) {
	baseURL := firstNonEmpty(flags["base-url"], cfg.BaseURL, "http://localhost:"+cfg.Port)

	entries, err := builder.BuildSiteIndex(ctx, baseURL)
	if err != nil {
		log.Fatalf("Failed to build sitemap: %v", err)
	}
	body, err := storefront.MarshalSitemap(entries)
	if err != nil {
		log.Fatalf("Failed to render sitemap: %v", err)
	}
	os.Stdout.Write(body)
	fmt.Println()
}

// parseFlags reads --key=value and bare --key arguments
func parseFlags(args []string) map[string]string {
	flags := make(map[string]string)
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		key, value, _ := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		flags[key] = value
	}
	return flags
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
