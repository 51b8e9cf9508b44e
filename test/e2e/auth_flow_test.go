// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 PhoneGate Contributors

package e2e

import (
	"context"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/samber/oops"

	"github.com/phonegate/phonegate/internal/auth"
	"github.com/phonegate/phonegate/internal/auth/authtest"
)

// capturingDeliverer records delivered codes for the test to read back.
type capturingDeliverer struct {
	mu    sync.Mutex
	codes map[string]string
}

func newCapturingDeliverer() *capturingDeliverer {
	return &capturingDeliverer{codes: make(map[string]string)}
}

func (d *capturingDeliverer) Deliver(_ context.Context, phone, code string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.codes[phone] = code
	return nil
}

func (d *capturingDeliverer) lastCode(phone string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.codes[phone]
}

func errorCode(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := oopsErr.Code().(string)
	return code
}

var _ = Describe("Authentication flows", func() {
	var (
		ctx       context.Context
		store     *authtest.MemoryStore
		deliverer *capturingDeliverer
		svc       *auth.Service
		manager   *auth.SessionManager
		recovery  *auth.RecoveryFlow
		guard     *auth.CsrfGuard
	)

	const (
		rawPhone  = "8 (900) 123-45-67"
		canonical = "+7-900-123-45-67"
		password  = "secret1"
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = authtest.NewMemoryStore()
		hasher := auth.NewArgon2idHasher()
		deliverer = newCapturingDeliverer()

		var err error
		manager, err = auth.NewSessionManager(store.Sessions(), time.Hour, 15*time.Minute)
		Expect(err).NotTo(HaveOccurred())

		svc, err = auth.NewService(store.Users(), manager, hasher)
		Expect(err).NotTo(HaveOccurred())

		recovery, err = auth.NewRecoveryFlow(store.Users(), store.Recovery(), hasher, deliverer, auth.RecoveryConfig{})
		Expect(err).NotTo(HaveOccurred())

		guard = auth.NewCsrfGuard()
	})

	Describe("registration and login", func() {
		It("round-trips register, login, current session and logout", func() {
			user, err := svc.Register(ctx, rawPhone, password)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Phone).To(Equal(canonical))

			loggedIn, token, err := svc.Login(ctx, "79001234567", password, "Mozilla/5.0", "203.0.113.7")
			Expect(err).NotTo(HaveOccurred())
			Expect(loggedIn.ID).To(Equal(user.ID))
			Expect(token).NotTo(BeEmpty())

			fp := auth.Fingerprint("Mozilla/5.0", "203.0.113.7")
			current, err := svc.CurrentSession(ctx, token, fp)
			Expect(err).NotTo(HaveOccurred())
			Expect(current.ID).To(Equal(user.ID))

			Expect(svc.Logout(ctx, token)).To(Succeed())

			_, err = svc.CurrentSession(ctx, token, fp)
			Expect(errorCode(err)).To(Equal("SESSION_INVALID"), "a destroyed token never validates again")
		})

		It("rejects a second registration for any spelling of the same phone", func() {
			_, err := svc.Register(ctx, rawPhone, password)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.Register(ctx, "+7 900 123 45 67", "other42")
			Expect(errorCode(err)).To(Equal("AUTH_DUPLICATE_PHONE"))
		})

		It("does not say which credential was wrong", func() {
			_, err := svc.Register(ctx, rawPhone, password)
			Expect(err).NotTo(HaveOccurred())

			_, _, wrongPass := svc.Login(ctx, rawPhone, "wrong42", "ua", "ip")
			_, _, wrongPhone := svc.Login(ctx, "89009999999", password, "ua", "ip")

			Expect(errorCode(wrongPass)).To(Equal("AUTH_INVALID_CREDENTIALS"))
			Expect(errorCode(wrongPhone)).To(Equal("AUTH_INVALID_CREDENTIALS"))
		})
	})

	Describe("session hijack defenses", func() {
		It("destroys a session presented with a foreign fingerprint", func() {
			_, err := svc.Register(ctx, rawPhone, password)
			Expect(err).NotTo(HaveOccurred())
			_, token, err := svc.Login(ctx, rawPhone, password, "Mozilla/5.0", "203.0.113.7")
			Expect(err).NotTo(HaveOccurred())

			attackerFp := auth.Fingerprint("curl/8.0", "198.51.100.1")
			_, err = svc.CurrentSession(ctx, token, attackerFp)
			Expect(errorCode(err)).To(Equal("SECURITY_FINGERPRINT_MISMATCH"))

			// The violation is terminal: the rightful owner is logged out too.
			ownerFp := auth.Fingerprint("Mozilla/5.0", "203.0.113.7")
			_, err = svc.CurrentSession(ctx, token, ownerFp)
			Expect(errorCode(err)).To(Equal("SESSION_INVALID"))
		})
	})

	Describe("CSRF protection", func() {
		It("accepts only the session's own token", func() {
			victim := auth.NewSessionContext("victim-fp")
			attacker := auth.NewSessionContext("attacker-fp")

			victimToken, err := guard.Issue(victim)
			Expect(err).NotTo(HaveOccurred())
			attackerToken, err := guard.Issue(attacker)
			Expect(err).NotTo(HaveOccurred())

			Expect(guard.Verify(victim, victimToken)).To(Succeed())
			Expect(errorCode(guard.Verify(victim, attackerToken))).To(Equal("SECURITY_CSRF_FAILED"))
			Expect(errorCode(guard.Verify(victim, ""))).To(Equal("SECURITY_CSRF_FAILED"))
		})
	})

	Describe("password recovery", func() {
		var sctx *auth.SessionContext

		BeforeEach(func() {
			_, err := svc.Register(ctx, rawPhone, password)
			Expect(err).NotTo(HaveOccurred())
			sctx = auth.NewSessionContext("fp")
		})

		It("resets the password with a delivered code", func() {
			Expect(recovery.Request(ctx, sctx, rawPhone)).To(Succeed())
			Expect(recovery.Stage(sctx)).To(Equal(auth.StageVerify))

			code := deliverer.lastCode(canonical)
			Expect(code).To(HaveLen(auth.DefaultRecoveryCodeLength))

			Expect(recovery.Verify(ctx, sctx, code)).To(Succeed())
			Expect(recovery.Stage(sctx)).To(Equal(auth.StageReset))

			Expect(recovery.Reset(ctx, sctx, "newpass2", "newpass2")).To(Succeed())
			Expect(recovery.Stage(sctx)).To(Equal(auth.StageRequest))

			_, _, err := svc.Login(ctx, rawPhone, "newpass2", "ua", "ip")
			Expect(err).NotTo(HaveOccurred(), "new password works")

			_, _, err = svc.Login(ctx, rawPhone, password, "ua", "ip")
			Expect(errorCode(err)).To(Equal("AUTH_INVALID_CREDENTIALS"), "old password is gone")
		})

		It("accepts a request for an unknown phone without leaking it", func() {
			Expect(recovery.Request(ctx, sctx, "89009999999")).To(Succeed())
			Expect(recovery.Stage(sctx)).To(Equal(auth.StageVerify))
			Expect(deliverer.lastCode("+7-900-999-99-99")).To(BeEmpty(), "nothing is delivered")
		})

		It("locks the code after too many wrong attempts", func() {
			Expect(recovery.Request(ctx, sctx, rawPhone)).To(Succeed())
			code := deliverer.lastCode(canonical)

			wrong := "000000"
			if code == wrong {
				wrong = "000001"
			}

			for i := 0; i < auth.DefaultRecoveryAttempts; i++ {
				err := recovery.Verify(ctx, sctx, wrong)
				Expect(errorCode(err)).To(Equal("RECOVERY_CODE_MISMATCH"))
			}

			// Budget spent: even the right code is refused now.
			err := recovery.Verify(ctx, sctx, code)
			Expect(errorCode(err)).To(Equal("RECOVERY_ATTEMPTS_EXHAUSTED"))

			// A fresh request supersedes the locked record.
			sctx = auth.NewSessionContext("fp")
			Expect(recovery.Request(ctx, sctx, rawPhone)).To(Succeed())
			fresh := deliverer.lastCode(canonical)
			Expect(recovery.Verify(ctx, sctx, fresh)).To(Succeed())
		})

		It("rate limits repeated requests per phone", func() {
			for i := 0; i < auth.DefaultRecoveryRateMax; i++ {
				Expect(recovery.Request(ctx, sctx, rawPhone)).To(Succeed())
			}

			err := recovery.Request(ctx, sctx, rawPhone)
			Expect(errorCode(err)).To(Equal("RECOVERY_RATE_LIMITED"))
		})

		It("throttles requests for unknown phones the same way", func() {
			for i := 0; i < auth.DefaultRecoveryRateMax; i++ {
				Expect(recovery.Request(ctx, sctx, "89009999999")).To(Succeed())
			}

			err := recovery.Request(ctx, sctx, "89009999999")
			Expect(errorCode(err)).To(Equal("RECOVERY_RATE_LIMITED"))
		})

		It("refuses a reset without a verified code", func() {
			Expect(recovery.Request(ctx, sctx, rawPhone)).To(Succeed())

			err := recovery.Reset(ctx, sctx, "newpass2", "newpass2")
			Expect(errorCode(err)).To(Equal("RECOVERY_NOT_VERIFIED"))
		})
	})

	Describe("session housekeeping", func() {
		It("purges expired sessions but keeps live ones", func() {
			user, err := svc.Register(ctx, rawPhone, password)
			Expect(err).NotTo(HaveOccurred())
			_, token, err := svc.Login(ctx, rawPhone, password, "ua", "ip")
			Expect(err).NotTo(HaveOccurred())

			// Plant a session whose lifetime already ran out.
			_, staleHash, err := auth.GenerateSessionToken()
			Expect(err).NotTo(HaveOccurred())
			now := time.Now()
			Expect(store.Sessions().Create(ctx, &auth.Session{
				UserID:      user.ID,
				TokenHash:   staleHash,
				Fingerprint: auth.Fingerprint("ua", "ip"),
				ExpiresAt:   now.Add(-time.Minute),
				CreatedAt:   now.Add(-2 * time.Hour),
				LastSeenAt:  now.Add(-2 * time.Hour),
			})).To(Succeed())

			n, err := manager.PurgeExpired(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			_, err = svc.CurrentSession(ctx, token, auth.Fingerprint("ua", "ip"))
			Expect(err).NotTo(HaveOccurred(), "the live session survives the purge")
		})
	})
})
