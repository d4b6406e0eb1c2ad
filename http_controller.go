package authgate

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// RegisterAuthRoutes mounts the auth flow endpoints on the given router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.
		Get(controller.Routes.Login,
			controller.LoginShow,
		).
		SetName("sign-in.get")

	app.
		Post(
			controller.Routes.Login,
			controller.LoginPost,
		).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")

	app.Get(controller.Routes.Register, controller.RegistrationShow).
		SetName("register.get")
	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	app.Get(controller.Routes.PasswordReset, controller.PasswordResetGet).
		SetName("pwd-reset.get")
	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("pwd-reset.post")

	app.Get(fmt.Sprintf("%s/:token", controller.Routes.PasswordReset), controller.PasswordResetForm).
		SetName("pwd-reset-do.get")
	app.Post(fmt.Sprintf("%s/:token", controller.Routes.PasswordReset), controller.PasswordResetExecute).
		SetName("pwd-reset-do.post")

	app.Get(controller.Routes.Verify, controller.VerifyCallback).
		SetName("verify.get")
}

type AuthControllerRoutes struct {
	Login         string
	Logout        string
	Register      string
	PasswordReset string
	Verify        string
	// AfterLogout is where a signed-out browser lands, "/" by default.
	AfterLogout string
}

type AuthControllerViews struct {
	Login         string
	Register      string
	PasswordReset string
}

type AuthController struct {
	Debug    bool
	Logger   Logger
	Provider Provider
	Repo     RepositoryManager
	Config   Config
	Activity ActivitySink
	Routes   *AuthControllerRoutes
	Views    *AuthControllerViews
	cookies  *CookieManager
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerProvider(provider Provider) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Provider = provider
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerActivity(sink ActivitySink) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Activity = normalizeActivitySink(sink)
		return c
	}
}

func WithControllerRoutes(routes *AuthControllerRoutes) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:   defLogger{},
		Activity: noopActivitySink{},
		Routes: &AuthControllerRoutes{
			Login:         "/auth/login",
			Logout:        "/auth/logout",
			Register:      "/auth/register",
			PasswordReset: "/auth/password-reset",
			Verify:        "/auth/callback",
			AfterLogout:   "/",
		},
		Views: &AuthControllerViews{
			Login:         "login",
			Register:      "register",
			PasswordReset: "password_reset",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Provider == nil {
		panic("Missing Provider in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Routes.AfterLogout == "" {
		c.Routes.AfterLogout = "/"
	}

	c.cookies = NewCookieManager(c.Config)

	return c
}

func (a *AuthController) LoginShow(ctx router.Context) error {
	return ctx.Render(a.Views.Login, router.ViewContext{
		"errors": nil,
		"record": nil,
		"return_to": SanitizeReturnPath(
			ctx.Query(a.Config.GetReturnToParam(), ""),
			a.Config.GetLandingPath(),
		),
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
	ReturnTo string `form:"return_to" json:"return_to"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign in parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Login, router.ViewContext{
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		errors := FormatValidationErrorToMap(err)
		return ctx.Render(a.Views.Login, router.ViewContext{
			"record":     payload,
			"validation": errors,
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	var res *SignInResponse

	req := SignInMessage{
		Email:    payload.Email,
		Password: payload.Password,
		OnResponse: func(resp *SignInResponse) {
			res = resp
		},
	}

	signIn := NewSignInHandler(a.Provider, a.Repo).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := signIn.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("sign in error: ", "error", err)
		return ctx.Render(a.Views.Login, router.ViewContext{
			"errors": map[string]string{
				"authentication": a.loginErrorMessage(err),
			},
			"record": payload,
		})
	}

	a.cookies.Write(ctx, res.Session)

	redirect := SanitizeReturnPath(payload.ReturnTo, a.Config.GetLandingPath())

	return ctx.Redirect(redirect, fiber.StatusSeeOther)
}

// loginErrorMessage keeps failure responses vague on purpose: invalid
// credentials and unknown accounts read the same.
func (a *AuthController) loginErrorMessage(err error) string {
	if IsUnverifiedEmailError(err) {
		return "Please confirm your email address before signing in"
	}
	if IsProviderUnavailableError(err) {
		return "Sign in is temporarily unavailable, try again shortly"
	}
	return "Invalid email or password"
}

func (a *AuthController) LogOut(ctx router.Context) error {
	creds := a.cookies.Read(ctx)

	subjectID := ""
	if subject, ok := GetRouterSubject(ctx, a.Config.GetContextKey()); ok {
		subjectID = subject.ID
	}

	signOut := NewSignOutHandler(a.Provider).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := signOut.Execute(ctx.Context(), SignOutMessage{
		AccessToken: creds.AccessToken,
		SubjectID:   subjectID,
	}); err != nil {
		a.Logger.Warn("sign out error: ", "error", err)
	}

	a.cookies.Clear(ctx)

	return ctx.Redirect(a.Routes.AfterLogout, fiber.StatusSeeOther)
}

func (a *AuthController) RegistrationShow(ctx router.Context) error {
	return ctx.Render(a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": RegistrationCreatePayload{},
	})
}

// RegistrationCreatePayload is the form payload
type RegistrationCreatePayload struct {
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(8, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationCreatePayload)

	if err := ctx.Bind(payload); err != nil {
		errors := map[string]string{}
		errors["form"] = "Failed to parse form"
		a.Logger.Error("register parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.Register, router.ViewContext{
			"errors": errors,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		errors := FormatValidationErrorToMap(err)
		a.Logger.Error("register validate payload: ", "error", err)

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.Register, router.ViewContext{
			"record":     payload,
			"validation": errors,
		})
	}

	req := SignUpMessage{
		Email:      payload.Email,
		Password:   payload.Password,
		OnResponse: func(resp *SignUpResponse) {},
	}

	signUp := NewSignUpHandler(a.Provider, a.Repo).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := signUp.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("register error: ", "error", err)

		msg := "Could not create account"
		if IsAlreadyRegisteredError(err) {
			msg = "That email is already registered"
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  msg,
			"system_message": "Error creating account",
		}).Render(a.Views.Register, router.ViewContext{
			"record": payload,
			"errors": []string{msg},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account created, check your email to confirm your address",
	}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

const (
	stageKey = "stage"
	tokenKey = "token"
)

const (
	// ResetInit shows the request form
	ResetInit = "show-reset"
	// ResetRequested notification sent
	ResetRequested = "email-sent"
	// ChangingPassword user will change password
	ChangingPassword = "change-password"
	// ChangeFinalized processing change
	ChangeFinalized = "password-changed"
)

func (a *AuthController) PasswordResetGet(ctx router.Context) error {
	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"errors": nil,
		"reset": map[string]string{
			stageKey: ResetInit,
		},
	})
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AuthController) PasswordResetPost(ctx router.Context) error {
	errors := map[string]string{}
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		errors["form"] = "Failed to parse form"
		a.Logger.Error("password reset parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.PasswordReset, router.ViewContext{
			"errors": errors,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("password reset validate payload: ", "error", err)
		verrs := FormatValidationErrorToMap(err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record":     payload,
			"validation": verrs,
		})
	}

	req := InitializePasswordResetMessage{
		Email:      payload.Email,
		RedirectTo: a.Routes.PasswordReset,
		OnResponse: func(resp *InitializePasswordResetResponse) {},
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Provider).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := initPwdReset.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset error: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  "Could not start the password reset, try again shortly",
			"system_message": "Error requesting password reset",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record": payload,
			"reset": map[string]string{
				stageKey: ResetInit,
			},
		})
	}

	// same response whether or not the email maps to an account
	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"errors": nil,
		"reset": map[string]string{
			stageKey: ResetRequested,
		},
	})
}

func (a *AuthController) PasswordResetForm(ctx router.Context) error {
	token := ctx.Param("token")

	return ctx.Render(a.Views.PasswordReset, router.ViewContext{
		"errors": nil,
		"reset": map[string]string{
			stageKey: ChangingPassword,
			tokenKey: token,
		},
	})
}

// PasswordResetExecutePayload finalizes a reset
type PasswordResetExecutePayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r PasswordResetExecutePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Password,
			validation.Required,
			validation.Length(8, 100),
		),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.Length(8, 100),
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) PasswordResetExecute(ctx router.Context) error {
	token := ctx.Param("token")
	errors := map[string]string{}
	payload := new(PasswordResetExecutePayload)

	if err := ctx.Bind(payload); err != nil {
		errors["form"] = "Failed to parse form"
		a.Logger.Error("password reset parse payload: ", "error", err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render(a.Views.PasswordReset, router.ViewContext{
			"errors": errors,
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("password reset validate payload: ", "error", err)
		verrs := FormatValidationErrorToMap(err)
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  err.Error(),
			"system_message": "Error validating payload",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record":     payload,
			"validation": verrs,
			"reset": map[string]string{
				stageKey: ChangingPassword,
				tokenKey: token,
			},
		})
	}

	req := FinalizePasswordResetMessage{
		Token:           token,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
		OnResponse:      func(resp *FinalizePasswordResetResponse) {},
	}

	finalize := NewFinalizePasswordResetHandler(a.Provider).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := finalize.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("password reset finalize error: ", "error", err)

		msg := "Could not update the password, try again shortly"
		if IsExpiredOrInvalidTokenError(err) {
			msg = "This reset link has expired, request a new one"
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  msg,
			"system_message": "Error updating password",
		}).Render(a.Views.PasswordReset, router.ViewContext{
			"record": payload,
			"errors": []string{msg},
			"reset": map[string]string{
				stageKey: ChangingPassword,
				tokenKey: token,
			},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Password updated, you may sign in now",
	}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

// VerifyCallback consumes the emailed confirmation or recovery link.
// Signup tokens sign the subject in; recovery tokens land on the change
// password form.
func (a *AuthController) VerifyCallback(ctx router.Context) error {
	token := ctx.Query(tokenKey, "")
	kind := ctx.Query("type", string(VerificationSignup))

	if token == "" {
		return flash.WithError(ctx, router.ViewContext{
			"error_message":  "This link is missing its token",
			"system_message": "Invalid verification link",
		}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	if VerificationKind(kind) == VerificationRecovery {
		return ctx.Redirect(
			fmt.Sprintf("%s/%s", a.Routes.PasswordReset, token),
			fiber.StatusSeeOther,
		)
	}

	var res *VerifyEmailResponse

	req := VerifyEmailMessage{
		Token: token,
		OnResponse: func(resp *VerifyEmailResponse) {
			res = resp
		},
	}

	verify := NewVerifyEmailHandler(a.Provider, a.Repo).
		WithActivitySink(a.Activity).
		WithLogger(a.Logger)

	if err := verify.Execute(ctx.Context(), req); err != nil {
		a.Logger.Error("email verification error: ", "error", err)

		msg := "Could not verify your email, try again shortly"
		if IsExpiredOrInvalidTokenError(err) {
			msg = "This confirmation link has expired, sign in to request a new one"
		}

		return flash.WithError(ctx, router.ViewContext{
			"error_message":  msg,
			"system_message": "Error verifying email",
		}).Redirect(a.Routes.Login, fiber.StatusSeeOther)
	}

	a.cookies.Write(ctx, res.Session)

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Email confirmed",
	}).Redirect(a.Config.GetLandingPath(), fiber.StatusSeeOther)
}
