package auth

import (
	"context"
	"encoding/json"
	"net/http"

	userstore "github.com/crewdesk/crewdesk/internal/app/store/users"
	sysauth "github.com/crewdesk/crewdesk/internal/app/system/auth"
	"github.com/crewdesk/crewdesk/internal/app/system/inputval"
	"github.com/crewdesk/crewdesk/internal/app/system/mailer"
	"github.com/crewdesk/crewdesk/internal/app/system/respond"
	"github.com/crewdesk/crewdesk/internal/app/system/tenant"
	"github.com/crewdesk/crewdesk/internal/app/system/timeouts"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.uber.org/zap"
)

type signupRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Company  string `json:"company" validate:"required,min=2,max=100"`
}

// sessionResponse is the payload for signup, login, and magic login.
type sessionResponse struct {
	Token string      `json:"token"`
	User  userSummary `json:"user"`
}

type userSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Company string `json:"company"`
}

// HandleSignup creates an account. The named company is created when it does
// not exist yet, and its creator becomes its admin; joining an existing
// company starts as employee.
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, "Invalid request body")
		return
	}
	if err := inputval.Struct(req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	company, created, err := h.Companies.GetOrCreate(ctx, req.Company)
	if err != nil {
		respond.ServerError(w, h.Log, "signup resolve company", err)
		return
	}
	role := tenant.RoleEmployee
	if created {
		role = tenant.RoleAdmin
	}

	user, err := h.Users.Create(ctx, models.User{
		Name:  req.Name,
		Email: req.Email,
	}, req.Password, role, company.ID)
	if err != nil {
		if err == userstore.ErrDuplicateEmail {
			respond.BadRequest(w, "Email already registered")
			return
		}
		respond.ServerError(w, h.Log, "signup create user", err)
		return
	}

	token, err := h.Tokens.IssueSession(user.ID, user.Email, role, company.ID)
	if err != nil {
		respond.ServerError(w, h.Log, "signup issue token", err)
		return
	}

	h.sendMail(user.Email, h.Templates.Welcome(user.Name, company.Name))
	h.Activity.Record(sysauth.Principal{
		Context: tenant.Context{UserID: user.ID, Role: role, CompanyID: company.ID},
		Name:    user.Name,
		Email:   user.Email,
	}, "signed up", "company: "+company.Name, r)
	h.Log.Info("user signed up",
		zap.String("user_id", user.ID.Hex()),
		zap.String("company_id", company.ID.Hex()),
		zap.Bool("company_created", created))

	respond.JSON(w, http.StatusCreated, sessionResponse{
		Token: token,
		User: userSummary{
			ID:      user.ID.Hex(),
			Name:    user.Name,
			Email:   user.Email,
			Role:    role,
			Company: company.ID.Hex(),
		},
	})
}

// sendMail queues an email through the outbox.
func (h *Handler) sendMail(to string, e mailer.Email) {
	e.To = to
	h.Outbox.Submit("mail:"+e.Subject, func(ctx context.Context) error {
		return h.Mail.Send(e)
	})
}
