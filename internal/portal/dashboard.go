package portal

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"gameforge.gg/platform/internal/fallback"
	"gameforge.gg/platform/internal/models"
)

type Summary struct {
	ActiveServices     int             `json:"active_services"`
	OnlineServers      int             `json:"online_servers"`
	UnpaidInvoices     int             `json:"unpaid_invoices"`
	AmountDue          decimal.Decimal `json:"amount_due"`
	FormattedAmountDue string          `json:"formatted_amount_due"`
	OpenTickets        int             `json:"open_tickets"`
}

// Dashboard is the composite client view. Sources records where each
// section came from so the UI can flag degraded data.
type Dashboard struct {
	Client   models.ExternalClientIdentity `json:"client"`
	Services []models.ServiceRecord        `json:"services"`
	Invoices []models.InvoiceRecord        `json:"invoices"`
	Tickets  []models.SupportTicket        `json:"tickets"`
	Servers  []ServerSummary               `json:"servers"`
	Summary  Summary                       `json:"summary"`
	Sources  map[string]fallback.Source    `json:"sources"`
}

// Dashboard fans out to both platforms in parallel. Transport failures are
// absorbed per section by the fallback policy; any other error cancels the
// remaining calls and is returned.
func (s *Service) Dashboard(ctx context.Context, client models.ExternalClientIdentity) (*Dashboard, error) {
	d := &Dashboard{Client: client}
	var svcSrc, invSrc, tktSrc, serverSrc fallback.Source

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Services, svcSrc, err = s.Services(gctx, client.ClientID)
		return err
	})
	g.Go(func() (err error) {
		d.Invoices, invSrc, err = s.Invoices(gctx, client.ClientID)
		return err
	})
	g.Go(func() (err error) {
		d.Tickets, tktSrc, err = s.Tickets(gctx, client.ClientID)
		return err
	})
	g.Go(func() (err error) {
		d.Servers, serverSrc, err = s.Servers(gctx, client.Email)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Sources = map[string]fallback.Source{
		"services": svcSrc,
		"invoices": invSrc,
		"tickets":  tktSrc,
		"servers":  serverSrc,
	}
	d.Summary = summarize(d, s.currency)
	return d, nil
}

func summarize(d *Dashboard, prefix string) Summary {
	sum := Summary{AmountDue: decimal.Zero}
	for _, svc := range d.Services {
		if svc.DomainStatus == models.DomainActive {
			sum.ActiveServices++
		}
	}
	for _, srv := range d.Servers {
		if srv.Status == models.PanelOnline {
			sum.OnlineServers++
		}
	}
	for _, inv := range d.Invoices {
		if inv.Status == models.InvoiceUnpaid {
			sum.UnpaidInvoices++
			sum.AmountDue = sum.AmountDue.Add(inv.Total)
		}
	}
	for _, t := range d.Tickets {
		switch t.Status {
		case models.TicketOpen, models.TicketAnswered, models.TicketCustomerReply:
			sum.OpenTickets++
		}
	}
	sum.FormattedAmountDue = FormatMoney(sum.AmountDue, prefix)
	return sum
}

type IntegrationState struct {
	Configured bool `json:"configured"`
	Connected  bool `json:"connected"`
}

type IntegrationStatus struct {
	Billing IntegrationState `json:"billing"`
	Panel   IntegrationState `json:"panel"`
}

// Status probes both integrations concurrently. Neither probe can fail the call.
func (s *Service) Status(ctx context.Context) IntegrationStatus {
	var st IntegrationStatus
	st.Billing.Configured = s.billing != nil
	st.Panel.Configured = s.panel.Configured()

	var g errgroup.Group
	if st.Billing.Configured {
		g.Go(func() error {
			st.Billing.Connected = s.billing.TestConnection(ctx)
			return nil
		})
	}
	if st.Panel.Configured {
		g.Go(func() error {
			st.Panel.Connected = s.panel.TestConnection(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return st
}
