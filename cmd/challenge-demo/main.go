// Command challenge-demo walks the challenge engine through its main flows
// against stub collaborators and an embedded miniredis, printing each state
// transition. No external services are required.
//
// Run:
//
//	go run ./cmd/challenge-demo login
//	go run ./cmd/challenge-demo lockout
//	go run ./cmd/challenge-demo recovery
//	go run ./cmd/challenge-demo stepup
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	challenge "github.com/myaccounts/challenge"
)

const (
	demoIdentity = "alice@example.com"
	demoCode     = "123456"
	demoPassword = "correct-horse"
	demoMarker   = "demo-device-1"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
	infoColor = color.New(color.FgCyan)
)

var rootCmd = &cobra.Command{
	Use:   "challenge-demo",
	Short: "Interactive tour of the challenge engine",
	Long: `challenge-demo runs the challenge engine against stub collaborators and an
embedded miniredis. Each subcommand demonstrates one flow end to end and
prints the engine's state transitions as they happen.`,
	SilenceUsage: true,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Login MFA with resend and trusted-device marking",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *challenge.Engine, clock *demoClock) error {
			trusted, err := engine.IsTrustedDevice(ctx)
			if err != nil {
				return err
			}
			infoColor.Printf("trusted device: %v\n", trusted)

			session, err := engine.NewSession(ctx, challenge.PurposeLoginMFA, demoIdentity)
			if err != nil {
				return err
			}
			defer session.Abandon(ctx)
			printState(session)

			infoColor.Println("switching to SMS")
			if err := session.SelectChannel(ctx, challenge.ChannelSMS); err != nil {
				return err
			}
			printState(session)

			if err := session.Dispatch(ctx); err != nil {
				return err
			}
			printState(session)
			infoColor.Printf("resend allowed: %v (cooldown %ds)\n", session.CanResend(), session.CooldownRemaining())

			session.SetRememberDevice(true)
			if err := session.Paste(0, demoCode); err != nil {
				return err
			}
			if err := session.Submit(ctx); err != nil {
				return err
			}
			printState(session)
			okColor.Println("login verified, device marked trusted")

			trusted, err = engine.IsTrustedDevice(ctx)
			if err != nil {
				return err
			}
			okColor.Printf("trusted device now: %v\n", trusted)
			return nil
		})
	},
}

var lockoutCmd = &cobra.Command{
	Use:   "lockout",
	Short: "Attempt lockout, waiting it out, then recovery-code fallback",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *challenge.Engine, clock *demoClock) error {
			session, err := engine.NewSession(ctx, challenge.PurposeLoginMFA, demoIdentity)
			if err != nil {
				return err
			}
			defer session.Abandon(ctx)

			for i := 1; ; i++ {
				if err := session.Paste(0, "000000"); err != nil {
					return err
				}
				err := session.Submit(ctx)
				failColor.Printf("attempt %d: %v\n", i, err)
				if err == challenge.ErrLockedOut {
					break
				}
			}
			printState(session)
			infoColor.Printf("locked for %s\n", session.RemainingLockout().Round(time.Second))

			if err := session.Paste(0, demoCode); err != nil {
				return err
			}
			if err := session.Submit(ctx); err != nil {
				failColor.Printf("while locked even the right code is rejected: %v\n", err)
			}

			infoColor.Println("advancing the clock past the lock window")
			clock.Advance(31 * time.Second)

			if err := session.Paste(0, demoCode); err != nil {
				return err
			}
			if err := session.Submit(ctx); err != nil {
				return err
			}
			printState(session)
			okColor.Println("verified after the lock elapsed, attempt count reset")
			return nil
		})
	},
}

var recoveryCmd = &cobra.Command{
	Use:   "recovery",
	Short: "Recovery-code fallback while locked out",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *challenge.Engine, clock *demoClock) error {
			session, err := engine.NewSession(ctx, challenge.PurposeLoginMFA, demoIdentity)
			if err != nil {
				return err
			}
			defer session.Abandon(ctx)

			for {
				if err := session.Paste(0, "000000"); err != nil {
					return err
				}
				if err := session.Submit(ctx); err == challenge.ErrLockedOut {
					break
				}
			}
			failColor.Printf("locked out for %s\n", session.RemainingLockout().Round(time.Second))

			infoColor.Println("redeeming a recovery code instead of waiting")
			if err := session.RedeemRecoveryCode(ctx, "rescue-0001"); err != nil {
				return err
			}
			printState(session)
			okColor.Println("recovered without waiting out the lock")

			infoColor.Println("the same code on a fresh session is single-use")
			second, err := engine.NewSession(ctx, challenge.PurposeLoginMFA, demoIdentity)
			if err != nil {
				return err
			}
			defer second.Abandon(ctx)
			if err := second.SelectChannel(ctx, challenge.ChannelSMS); err != nil {
				return err
			}
			if err := second.Dispatch(ctx); err != nil {
				return err
			}
			if err := second.RedeemRecoveryCode(ctx, "rescue-0001"); err != nil {
				failColor.Printf("second redemption: %v\n", err)
			}
			return nil
		})
	},
}

var stepupCmd = &cobra.Command{
	Use:   "stepup",
	Short: "Step-up re-auth by password, then recovery-set regeneration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEngine(func(ctx context.Context, engine *challenge.Engine, clock *demoClock) error {
			session, err := engine.NewStepUp(ctx, demoIdentity)
			if err != nil {
				return err
			}
			defer session.Abandon(ctx)
			printState(session)

			if err := session.SubmitPassword(ctx, "wrong"); err != nil {
				failColor.Printf("wrong password: %v (attempt %d)\n", err, session.AttemptCount())
			}
			if err := session.SubmitPassword(ctx, demoPassword); err != nil {
				return err
			}
			printState(session)

			assertion, err := session.Assertion()
			if err != nil {
				return err
			}
			okColor.Printf("assertion issued, valid until %s\n", assertion.ExpiresAt.Format(time.Kitchen))

			set, err := engine.RegenerateRecoveryCodeSet(ctx, demoIdentity, assertion.Token)
			if err != nil {
				return err
			}
			okColor.Printf("recovery set regenerated, %d codes:\n", len(set.Codes))
			for _, code := range set.Codes {
				fmt.Printf("    %s\n", code.Masked())
			}
			return nil
		})
	},
}

// demoClock lets flows jump forward through cooldowns and lockouts.
type demoClock struct {
	now time.Time
}

func (c *demoClock) Now() time.Time { return c.now }

func (c *demoClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func withEngine(run func(ctx context.Context, engine *challenge.Engine, clock *demoClock) error) error {
	mr, err := miniredis.Run()
	if err != nil {
		return err
	}
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	backend := newStubBackend(demoCode, demoPassword, []string{"rescue-0001", "rescue-0002", "rescue-0003"})
	clock := &demoClock{now: time.Now()}

	cfg := challenge.DefaultConfig()
	cfg.StepUp.SigningKey = []byte("demo-signing-key-32-bytes-long!!")

	engine, err := challenge.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithCodeDelivery(backend).
		WithCodeVerifier(backend).
		WithPasswordVerifier(backend).
		WithRecoveryCodeProvider(backend).
		WithAuditSink(challenge.NewJSONWriterSink(os.Stderr)).
		WithClock(clock.Now).
		Build()
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx := challenge.WithDeviceMarker(context.Background(), demoMarker)
	return run(ctx, engine, clock)
}

func printState(session *challenge.Session) {
	channel, ok := session.Channel()
	name := "-"
	if ok {
		name = channel.DisplayName()
	}
	infoColor.Printf("state=%s channel=%s attempts=%d\n", session.State(), name, session.AttemptCount())
}

func main() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(lockoutCmd)
	rootCmd.AddCommand(recoveryCmd)
	rootCmd.AddCommand(stepupCmd)
	if err := rootCmd.Execute(); err != nil {
		failColor.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
