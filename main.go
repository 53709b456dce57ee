package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"investa/cmd"
	"investa/config"
	"investa/database"
	"investa/domain/entities"
	"investa/server"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatal("Migration error: ", err)
			}
			return
		case "token":
			if err := handleTokenCommand(); err != nil {
				log.Fatal("Token error: ", err)
			}
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: investa migrate [up|down|status] [args...]")
	}

	command := os.Args[2]
	switch command {
	case "up":
		return database.MigrateUp()
	case "down":
		steps := "1"
		if len(os.Args) > 3 {
			steps = os.Args[3]
		}
		return database.MigrateDown(steps)
	case "status":
		return database.MigrateStatus()
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}
}

// handleTokenCommand prints a signed bearer token for local testing
func handleTokenCommand() error {
	if len(os.Args) < 4 {
		return fmt.Errorf("usage: investa token [investor|admin] <investor_id> [ttl]")
	}

	role := entities.Role(os.Args[2])
	if !role.IsValid() {
		return fmt.Errorf("unknown role: %s", os.Args[2])
	}
	investorID, err := strconv.ParseInt(os.Args[3], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid investor id: %w", err)
	}
	ttl := 24 * time.Hour
	if len(os.Args) > 4 {
		if ttl, err = time.ParseDuration(os.Args[4]); err != nil {
			return fmt.Errorf("invalid ttl: %w", err)
		}
	}

	token, err := server.IssueToken(entities.Identity{Role: role, InvestorID: investorID}, []byte(config.Get().JWTSecret), ttl)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
