package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avoronov/hearth/internal/auth"
	"github.com/avoronov/hearth/internal/snowflake"
)

// Set via -ldflags at build time.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "migrate":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: hearth-cli migrate")
			fmt.Println()
			fmt.Println("Run database migrations from the migrations/ directory.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  DATABASE_URL  PostgreSQL connection string (required)")
			return
		}
		os.Exit(runMigrate())
	case "seed":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: hearth-cli seed")
			fmt.Println()
			fmt.Println("Seed the database with demo data: 2 users, a server with roles,")
			fmt.Println("channels, a locked channel, and messages.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  DATABASE_URL  PostgreSQL connection string (required)")
			return
		}
		os.Exit(runSeed())
	case "health":
		if hasFlag("--help", os.Args[2:]) {
			fmt.Println("Usage: hearth-cli health")
			fmt.Println()
			fmt.Println("Check if the Hearth server is running.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  SERVER_URL  Server base URL (default: http://localhost:8080)")
			return
		}
		os.Exit(runHealth())
	case "version":
		fmt.Printf("hearth-cli %s\n", version)
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: hearth-cli <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate  Run database migrations")
	fmt.Println("  seed     Seed demo data (users, server, channels, messages)")
	fmt.Println("  health   Check if the server is running")
	fmt.Println("  version  Print version info")
	fmt.Println()
	fmt.Println("Run 'hearth-cli <command> --help' for details on a command.")
}

func hasFlag(flag string, args []string) bool {
	for _, a := range args {
		if a == flag {
			return true
		}
	}
	return false
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		fmt.Fprintf(os.Stderr, "error: %s environment variable is required\n", key)
		os.Exit(1)
	}
	return v
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// --- migrate ---

func runMigrate() int {
	dbURL := requireEnv("DATABASE_URL")

	fmt.Println("connecting to database...")
	m, err := migrate.New("file://migrations", dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: migration init failed: %v\n", err)
		return 1
	}
	defer m.Close()

	fmt.Println("running migrations...")
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		fmt.Fprintf(os.Stderr, "error: migration failed: %v\n", err)
		return 1
	}

	v, dirty, _ := m.Version()
	if err == migrate.ErrNoChange {
		fmt.Printf("no new migrations (current version: %d)\n", v)
	} else {
		fmt.Printf("migrations applied (version: %d, dirty: %v)\n", v, dirty)
	}
	return 0
}

// --- seed ---

func runSeed() int {
	dbURL := requireEnv("DATABASE_URL")
	ctx := context.Background()

	fmt.Println("connecting to database...")
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: database connection failed: %v\n", err)
		return 1
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: database ping failed: %v\n", err)
		return 1
	}

	sf, err := snowflake.NewGenerator(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: snowflake init failed: %v\n", err)
		return 1
	}

	fmt.Println("hashing passwords...")
	aliceHash, err := auth.HashPassword("password123")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: hashing password: %v\n", err)
		return 1
	}
	bobHash, err := auth.HashPassword("password456")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: hashing password: %v\n", err)
		return 1
	}

	aliceID := sf.Generate()
	bobID := sf.Generate()
	serverID := sf.Generate()
	generalChanID := sf.Generate()
	staffChanID := sf.Generate()
	modRoleID := sf.Generate()
	msg1ID := sf.Generate()
	msg2ID := sf.Generate()

	now := time.Now()

	tx, err := pool.Begin(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: starting transaction: %v\n", err)
		return 1
	}
	defer tx.Rollback(ctx)

	fmt.Println("creating users...")
	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, username, display_name, password_hash, created_at) VALUES ($1,$2,$3,$4,$5), ($6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO NOTHING`,
		aliceID.Int64(), "alice", "Alice", aliceHash, now,
		bobID.Int64(), "bob", "Bob", bobHash, now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating users: %v\n", err)
		return 1
	}

	fmt.Println("creating server...")
	_, err = tx.Exec(ctx,
		`INSERT INTO servers (id, name, owner_id, created_at) VALUES ($1,$2,$3,$4)
		 ON CONFLICT (id) DO NOTHING`,
		serverID.Int64(), "Demo Server", aliceID.Int64(), now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating server: %v\n", err)
		return 1
	}

	fmt.Println("creating channels...")
	_, err = tx.Exec(ctx,
		`INSERT INTO channels (id, server_id, name, type, position) VALUES ($1,$2,$3,0,0), ($4,$5,$6,0,1)
		 ON CONFLICT (id) DO NOTHING`,
		generalChanID.Int64(), serverID.Int64(), "general",
		staffChanID.Int64(), serverID.Int64(), "staff",
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating channels: %v\n", err)
		return 1
	}

	fmt.Println("creating moderator role...")
	_, err = tx.Exec(ctx,
		`INSERT INTO roles (id, server_id, name, color, grants, position) VALUES ($1,$2,$3,$4,$5,$6)
		 ON CONFLICT (id) DO NOTHING`,
		modRoleID.Int64(), serverID.Int64(), "Moderators", 0xE67E22,
		`["MANAGE_CHANNEL","DELETE_OTHERS_MESSAGES"]`, 1,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating role: %v\n", err)
		return 1
	}

	fmt.Println("creating members...")
	_, err = tx.Exec(ctx,
		`INSERT INTO members (server_id, user_id, joined_at) VALUES ($1,$2,$3), ($4,$5,$6)
		 ON CONFLICT (server_id, user_id) DO NOTHING`,
		serverID.Int64(), aliceID.Int64(), now,
		serverID.Int64(), bobID.Int64(), now,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating members: %v\n", err)
		return 1
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO member_roles (server_id, user_id, role_id) VALUES ($1,$2,$3)
		 ON CONFLICT DO NOTHING`,
		serverID.Int64(), bobID.Int64(), modRoleID.Int64(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: assigning role: %v\n", err)
		return 1
	}

	// Lock #staff to moderators: hide it from everyone, let the role back in.
	fmt.Println("locking staff channel...")
	_, err = tx.Exec(ctx,
		`INSERT INTO channel_overwrites (channel_id, target_kind, target_id, perms) VALUES
		 ($1, 'everyone', 0, $2),
		 ($3, 'role', $4, $5)
		 ON CONFLICT (channel_id, target_kind, target_id) DO NOTHING`,
		staffChanID.Int64(), `["deny:VIEW_CHANNEL"]`,
		staffChanID.Int64(), modRoleID.Int64(), `["allow:VIEW_CHANNEL"]`,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating overwrites: %v\n", err)
		return 1
	}

	fmt.Println("creating messages...")
	_, err = tx.Exec(ctx,
		`INSERT INTO messages (id, channel_id, author_id, content, created_at) VALUES
		 ($1,$2,$3,$4,$5), ($6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO NOTHING`,
		msg1ID.Int64(), generalChanID.Int64(), aliceID.Int64(), "Welcome to the demo server!", now,
		msg2ID.Int64(), staffChanID.Int64(), bobID.Int64(), "Moderators only in here.", now.Add(time.Second),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: creating messages: %v\n", err)
		return 1
	}

	if err := tx.Commit(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: committing: %v\n", err)
		return 1
	}

	fmt.Println()
	fmt.Println("seed complete:")
	fmt.Printf("  alice / password123 (owner, id %d)\n", aliceID.Int64())
	fmt.Printf("  bob   / password456 (moderator, id %d)\n", bobID.Int64())
	fmt.Printf("  server %d with #general and a moderator-only #staff\n", serverID.Int64())
	return 0
}

// --- health ---

func runHealth() int {
	base := envOr("SERVER_URL", "http://localhost:8080")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(base + "/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: server unreachable: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "error: unhealthy (status %d): %s\n", resp.StatusCode, body)
		return 1
	}

	fmt.Printf("ok: %s\n", body)
	return 0
}
