package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli"

	"github.com/noah-isme/campus-scheduler/internal/models"
	"github.com/noah-isme/campus-scheduler/internal/service"
	"github.com/noah-isme/campus-scheduler/pkg/config"
)

var tokenFlags = []cli.Flag{
	cli.StringFlag{Name: "user, u", Usage: "user id placed in the token"},
	cli.StringFlag{Name: "role, r", Value: string(models.RoleAdmin), Usage: "ADMIN, FACULTY or STUDENT"},
	cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "token lifetime"},
}

func token(ctx *cli.Context) error {
	userID := ctx.String("user")
	if userID == "" {
		return cli.NewExitError("--user is required", exitInvalid)
	}
	role := models.UserRole(strings.ToUpper(ctx.String("role")))
	switch role {
	case models.RoleAdmin, models.RoleFaculty, models.RoleStudent:
	default:
		return cli.NewExitError(fmt.Sprintf("unknown role %q", ctx.String("role")), exitInvalid)
	}
	cfg, err := config.Load()
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("load config: %v", err), exitInvalid)
	}
	signed, expiresAt, err := service.NewTokenService(cfg.JWT.Secret).Issue(userID, role, ctx.Duration("ttl"))
	if err != nil {
		return cli.NewExitError(err.Error(), exitInvalid)
	}
	fmt.Println(signed)
	fmt.Printf("# expires %s\n", expiresAt.Format(time.RFC3339))
	return nil
}
