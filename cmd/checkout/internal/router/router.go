package router

import (
	"net/http"
	"time"

	"anarchy.ttfm/payin/apierror"
	"anarchy.ttfm/payin/cmd/checkout/internal/sessions"
	"anarchy.ttfm/payin/cmd/checkout/internal/summarycache"
	"anarchy.ttfm/payin/countdown"
	"anarchy.ttfm/payin/currencies"
	"anarchy.ttfm/payin/quote"
	"anarchy.ttfm/payin/transactions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Manages the entire setup of the hosted checkout
type Router struct {
	// Accept stage sessions
	Sessions *sessions.Registry
	// Supported currency store for display names
	Currencies *currencies.Store
	// Recently seen summaries, for terminal page context
	Cache *summarycache.Cache
	// Transport to the merchant API, used by the pay stage
	Service quote.Service
	// Logger to use
	Logger zerolog.Logger
	// Base Gin Group to use for routing
	Base gin.IRoutes
}

const (
	UuidParam        = "uuid"
	AcceptPath       = "/payin/:" + UuidParam
	SelectPath       = AcceptPath + "/currency"
	ConfirmPath      = AcceptPath + "/confirm"
	PayPath          = AcceptPath + "/pay"
	ExpiredPath      = AcceptPath + "/expired"
	InvalidPath      = AcceptPath + "/invalid"
)

// PagePath resolves a navigation target to its route
func PagePath(id uuid.UUID, page quote.Page) (path string) {
	base := "/payin/" + id.String()
	switch page {
	case quote.PagePay:
		return base + "/pay"
	case quote.PageExpired:
		return base + "/expired"
	case quote.PageInvalid:
		return base + "/invalid"
	default:
		return base
	}
}

// parseUuid validates the routed identifier. A malformed id never
// reaches a state machine, it redirects straight to the invalid page.
// Not found and malformed are indistinguishable at this layer
func (r *Router) parseUuid(ctx *gin.Context) (id uuid.UUID, valid bool) {
	raw := ctx.Param(UuidParam)
	id, err := uuid.Parse(raw)
	if err != nil {
		ctx.Redirect(http.StatusFound, "/payin/"+raw+"/invalid")
		return id, false
	}
	return id, true
}

func (r *Router) acceptPage(ctx *gin.Context) {
	id, valid := r.parseUuid(ctx)
	if !valid {
		return
	}

	m := r.Sessions.Acquire(ctx.Request.Context(), id)
	if decision := m.Decision(); decision.Navigate {
		ctx.Redirect(http.StatusFound, PagePath(id, decision.Page))
		return
	}

	if err := m.Err(); err != nil {
		// The error view wins over the normal quote UI
		desc := apierror.Describe(err)
		ctx.HTML(http.StatusOK, "error.html", ErrorView{
			Title:        desc.Title,
			Detail:       desc.Detail,
			AllowRefresh: desc.AllowRefresh,
			RefreshPath:  PagePath(id, quote.PageAccept),
		})
		return
	}

	view := r.acceptView(m)
	r.storeSummary(m)
	ctx.HTML(http.StatusOK, "accept.html", view)
}

func (r *Router) selectCurrency(ctx *gin.Context) {
	id, valid := r.parseUuid(ctx)
	if !valid {
		return
	}

	currency := ctx.PostForm("currency")
	if currency == "" {
		ctx.Redirect(http.StatusSeeOther, PagePath(id, quote.PageAccept))
		return
	}

	m := r.Sessions.Acquire(ctx.Request.Context(), id)
	decision := m.Select(ctx.Request.Context(), currency)
	if decision.Navigate {
		ctx.Redirect(http.StatusSeeOther, PagePath(id, decision.Page))
		return
	}
	ctx.Redirect(http.StatusSeeOther, PagePath(id, quote.PageAccept))
}

func (r *Router) confirmQuote(ctx *gin.Context) {
	id, valid := r.parseUuid(ctx)
	if !valid {
		return
	}

	m := r.Sessions.Acquire(ctx.Request.Context(), id)
	decision := m.Confirm(ctx.Request.Context())
	if decision.Navigate {
		ctx.Redirect(http.StatusSeeOther, PagePath(id, decision.Page))
		return
	}
	ctx.Redirect(http.StatusSeeOther, PagePath(id, quote.PageAccept))
}

func (r *Router) payPage(ctx *gin.Context) {
	id, valid := r.parseUuid(ctx)
	if !valid {
		return
	}

	p := quote.NewPay(quote.Config{
		Id:      id,
		Service: r.Service,
		Logger:  r.Logger,
	})
	if decision := p.Start(ctx.Request.Context()); decision.Navigate {
		ctx.Redirect(http.StatusFound, PagePath(id, decision.Page))
		return
	}

	ctx.HTML(http.StatusOK, "pay.html", r.payView(p))
}

func (r *Router) expiredPage(ctx *gin.Context) {
	id, valid := r.parseUuid(ctx)
	if !valid {
		return
	}

	m := r.Sessions.Acquire(ctx.Request.Context(), id)
	if !expired(m) {
		// The transaction is still live, the accept stage owns it
		ctx.Redirect(http.StatusFound, PagePath(id, quote.PageAccept))
		return
	}

	// The accept session has nothing left to do for this transaction
	r.Sessions.Evict(id)

	view := ExpiredView{}
	if summary, found, err := r.Cache.Get(id); err == nil && found {
		view.MerchantDisplayName = summary.MerchantDisplayName
		view.Reference = summary.Reference
	}
	ctx.HTML(http.StatusOK, "expired.html", view)
}

func (r *Router) invalidPage(ctx *gin.Context) {
	ctx.HTML(http.StatusOK, "invalid.html", nil)
}

// Register routes in the Gin engine
func (r *Router) Register() {
	r.Base.GET(AcceptPath, r.acceptPage)
	r.Base.POST(SelectPath, r.selectCurrency)
	r.Base.POST(ConfirmPath, r.confirmQuote)
	r.Base.GET(PayPath, r.payPage)
	r.Base.GET(ExpiredPath, r.expiredPage)
	r.Base.GET(InvalidPath, r.invalidPage)
}

// expired reports whether the transaction truly ran out: an expired
// status, a passed payment deadline, or a machine that latched onto the
// expired page after a rejected update
func expired(m *quote.Machine) (out bool) {
	if decision := m.Decision(); decision.Navigate && decision.Page == quote.PageExpired {
		return true
	}

	summary, ok := m.Transaction()
	if !ok {
		return false
	}
	if summary.Status == transactions.StatusExpired {
		return true
	}
	return countdown.At(summary.ExpiryDate, time.Now()).Expired
}

func (r *Router) storeSummary(m *quote.Machine) {
	summary, ok := m.Transaction()
	if !ok {
		return
	}
	err := r.Cache.Put(summary)
	if err != nil {
		r.Logger.Warn().Err(err).Msg("failed to cache summary")
	}
}
