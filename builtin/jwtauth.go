package builtin

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	executor "github.com/flowexec/executor"
)

// IDUnauthorized is the stable error id JWTAuthPlugin normalizes every
// authentication failure to, regardless of the underlying jwt parse
// error.
const IDUnauthorized = "UNAUTHORIZED"

// TokenFunc extracts the bearer token from the call's parameters.
type TokenFunc[Params any] func(Params) string

// JWTAuthPlugin validates a bearer token on beforeHooks using
// golang-jwt/jwt/v5, and demonstrates the errorHook override path: any
// failure from OnBefore is re-surfaced by OnError as a stable
// *executor.Error with id IDUnauthorized so callers never need to
// pattern-match on the underlying jwt library's error types.
type JWTAuthPlugin[Params, Return any] struct {
	Secret []byte
	Token  TokenFunc[Params]
}

// NewJWTAuthPlugin builds a plugin validating tokens against secret
// using token to pull the bearer token from parameters.
func NewJWTAuthPlugin[Params, Return any](secret []byte, token TokenFunc[Params]) *JWTAuthPlugin[Params, Return] {
	return &JWTAuthPlugin[Params, Return]{Secret: secret, Token: token}
}

func (p *JWTAuthPlugin[Params, Return]) PluginName() string { return "jwt-auth" }
func (p *JWTAuthPlugin[Params, Return]) OnlyOne() bool       { return true }

const jwtAuthFailedKey = "builtin.jwtauth.failed"

func (p *JWTAuthPlugin[Params, Return]) OnBefore(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	raw := p.Token(ctx.Parameters())
	if raw == "" {
		return nil, p.fail(ctx, errors.New("jwt auth: missing bearer token"))
	}

	_, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("jwt auth: unexpected signing method %v", t.Header["alg"])
		}
		return p.Secret, nil
	})
	if err != nil {
		return nil, p.fail(ctx, fmt.Errorf("jwt auth: %w", err))
	}
	return nil, nil
}

func (p *JWTAuthPlugin[Params, Return]) fail(ctx *executor.ExecutionContext[Params, Return], err error) error {
	ctx.Runtimes(executor.HookRuntimesPatch{Extra: map[string]any{jwtAuthFailedKey: true}})
	return err
}

// OnError rewrites only this plugin's own OnBefore failures into a
// stable IDUnauthorized error; failures from the task or other plugins
// pass through unchanged.
func (p *JWTAuthPlugin[Params, Return]) OnError(ctx *executor.ExecutionContext[Params, Return]) (any, error) {
	extra := ctx.HooksRuntimes().Extra
	if extra == nil || extra[jwtAuthFailedKey] != true {
		return nil, nil
	}
	return executor.NewError(IDUnauthorized, ctx.Error()), nil
}
