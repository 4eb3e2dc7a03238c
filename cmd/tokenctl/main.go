// tokenctl is the administrative CLI for the tokengate store. It operates on
// the durable slot directly through the same configuration as the server.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tokengate/tokengate/internal/auth"
	"github.com/tokengate/tokengate/internal/codec"
	"github.com/tokengate/tokengate/internal/config"
	"github.com/tokengate/tokengate/internal/database"
	"github.com/tokengate/tokengate/internal/logger"
	"github.com/tokengate/tokengate/internal/service"
	"github.com/tokengate/tokengate/internal/slot"
	"github.com/tokengate/tokengate/internal/store"
)

var (
	issueDays int
	exportOut string
	exportQR  string
)

var rootCmd = &cobra.Command{
	Use:   "tokenctl",
	Short: "Administrative CLI for the tokengate token store",
}

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a new access token",
	RunE:  runIssue,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tokens, newest first",
	RunE:  runList,
}

var releaseCmd = &cobra.Command{
	Use:   "release [token]",
	Short: "Force a token to used (administrative logout)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRelease,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [token]",
	Short: "Delete a token permanently",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all tokens as an obfuscated backup blob",
	Long: `Export all tokens as an obfuscated backup blob.

The blob deters casual inspection but is not encrypted: anyone holding a
distributed client can decode it. Treat backup files like the tokens they
contain.`,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a backup file, merging it into the store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash an admin password for security.admin.password_hash",
	RunE:  runHashPassword,
}

func init() {
	issueCmd.Flags().IntVar(&issueDays, "days", 0, "days until expiry (0 = never expires)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "write the blob to a file instead of stdout")
	exportCmd.Flags().StringVar(&exportQR, "qr", "", "additionally render the blob as a QR code PNG")
	rootCmd.AddCommand(issueCmd, listCmd, releaseCmd, deleteCmd, exportCmd, importCmd, hashPasswordCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// openServices builds the store and services against the configured slot.
// The returned cleanup closes any opened connections.
func openServices() (*service.TokenService, *service.BackupService, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New("warn", "text")

	var (
		sl      slot.Slot
		cleanup = func() {}
	)
	switch cfg.Store.Backend {
	case "redis":
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		cleanup = func() { rdb.Close() }
		sl = slot.NewRedis(rdb, cfg.Store.RedisKey)
	case "postgres":
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanup = func() { db.Close() }
		sl = slot.NewPostgres(db)
	case "file":
		sl = slot.NewFile(cfg.Store.FilePath)
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	st := store.New(codec.Default(), sl, log)
	st.Load(context.Background())

	tokenSvc := service.NewTokenService(st, cfg.Store, log)
	backupSvc := service.NewBackupService(tokenSvc, st, codec.Default(), cfg.Backup, log)
	return tokenSvc, backupSvc, cleanup, nil
}

func runIssue(cmd *cobra.Command, args []string) error {
	tokenSvc, _, cleanup, err := openServices()
	if err != nil {
		return err
	}
	defer cleanup()

	var days *int
	if issueDays > 0 {
		days = &issueDays
	}

	token, err := tokenSvc.Issue(cmd.Context(), days)
	if err != nil {
		return err
	}

	fmt.Println(token.Value)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	tokenSvc, _, cleanup, err := openServices()
	if err != nil {
		return err
	}
	defer cleanup()

	tokens := tokenSvc.List(cmd.Context())
	if len(tokens) == 0 {
		fmt.Println("no tokens")
		return nil
	}

	for _, t := range tokens {
		expiry := "never"
		if t.ExpiresAt != nil {
			expiry = fmt.Sprintf("%d", *t.ExpiresAt)
		}
		fmt.Printf("%s  %-9s  created=%d  expires=%s\n", t.Value, t.Status, t.CreatedAt, expiry)
	}
	return nil
}

func runRelease(cmd *cobra.Command, args []string) error {
	tokenSvc, _, cleanup, err := openServices()
	if err != nil {
		return err
	}
	defer cleanup()

	tokenSvc.Release(cmd.Context(), args[0])
	fmt.Println("released")
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	tokenSvc, _, cleanup, err := openServices()
	if err != nil {
		return err
	}
	defer cleanup()

	tokenSvc.Delete(cmd.Context(), args[0])
	fmt.Println("deleted")
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	_, backupSvc, cleanup, err := openServices()
	if err != nil {
		return err
	}
	defer cleanup()

	blob, err := backupSvc.Export(cmd.Context())
	if err != nil {
		return err
	}

	if exportQR != "" {
		if err := qrcode.WriteFile(blob, qrcode.Medium, 512, exportQR); err != nil {
			return fmt.Errorf("failed to write QR code: %w", err)
		}
		fmt.Printf("QR code written to %s\n", exportQR)
	}

	if exportOut != "" {
		if err := os.WriteFile(exportOut, []byte(blob), 0o600); err != nil {
			return fmt.Errorf("failed to write backup file: %w", err)
		}
		fmt.Printf("backup written to %s\n", exportOut)
		return nil
	}

	fmt.Println(blob)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	_, backupSvc, cleanup, err := openServices()
	if err != nil {
		return err
	}
	defer cleanup()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	result, err := backupSvc.Import(cmd.Context(), strings.TrimSpace(string(data)))
	if err != nil {
		return err
	}

	fmt.Printf("imported %d tokens, store now holds %d\n", result.Imported, result.Total)
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	hash, err := auth.HashPassword(string(password), nil)
	if err != nil {
		return err
	}

	fmt.Println(hash)
	return nil
}
