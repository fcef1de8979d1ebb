// Package main provides a CLI tool for generating operator tokens for the
// trustgate API. Tokens are signed with the development key unless
// JWT_SIGNING_KEY is set.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "trustgate/internal/jwt_token"
	id "trustgate/pkg/domain"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "trustgate"
	defaultTokenTTL = time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	fs := flag.NewFlagSet("tokengen", flag.ExitOnError)
	tenant := fs.String("tenant-id", "", "Tenant the token is scoped to (required)")
	subject := fs.String("sub", "operator@localhost", "Operator recorded as the audit actor")
	issuer := fs.String("issuer", envOr("JWT_ISSUER", defaultIssuer), "Token issuer")
	ttl := fs.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	fs.Usage = printUsage
	_ = fs.Parse(os.Args[1:]) //nolint:errcheck // ExitOnError

	tenantID, err := id.ParseTenantID(*tenant)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -tenant-id: %v\n\n", err)
		printUsage()
		os.Exit(1)
	}

	signingKey := envOr("JWT_SIGNING_KEY", devSigningKey)
	keyType := "dev"
	if signingKey != devSigningKey {
		keyType = "env"
	}

	svc := jwttoken.NewJWTService(signingKey, *issuer, *ttl)
	token, jti, err := svc.GenerateToken(tenantID, *subject)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"tenant_id": tenantID.String(),
				"sub":       *subject,
				"iss":       *issuer,
				"jti":       jti,
			},
			Usage: map[string]string{
				"header":      "Authorization: Bearer <token>",
				"signing_key": keyType,
			},
		})
		return
	}

	fmt.Println("Operator Token (JWT)")
	fmt.Println("====================")
	fmt.Printf("Signing Key: %s\n", keyType)
	fmt.Printf("Expires In:  %s\n", *ttl)
	fmt.Printf("Tenant ID:   %s\n", tenantID)
	fmt.Printf("Subject:     %s\n", *subject)
	fmt.Printf("JTI:         %s\n", jti)
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/tenant/%s/autopilot/enforcement/settings\n", tenantID)
}

func printUsage() {
	fmt.Println(`tokengen - Generate operator tokens for the trustgate API

Usage:
  tokengen -tenant-id <tenant> [-sub operator] [-ttl 1h] [-json]

Examples:
  tokengen -tenant-id acme
  tokengen -tenant-id acme -sub ops@acme.io -ttl 15m -json`)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
