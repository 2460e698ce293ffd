// Command admin-token mints a short-lived administrator bearer token signed
// with the server's JWT configuration.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "samved/internal/jwt_token"
	"samved/internal/platform/config"
	id "samved/pkg/domain"
)

func main() {
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	subject := flag.String("subject", "", "administrator identity id (random when empty)")
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	adminID := id.NewIdentityID()
	if *subject != "" {
		adminID, err = id.ParseIdentityID(*subject)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid subject:", err)
			os.Exit(1)
		}
	}

	svc := jwttoken.NewJWTService(cfg.JWT.SigningKey, cfg.JWT.Issuer, cfg.JWT.Audience)
	token, err := svc.GenerateAccessToken(adminID, id.RoleAdmin, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "sign token:", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
