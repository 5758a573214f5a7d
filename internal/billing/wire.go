package billing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"gameforge.gg/platform/pkg/clients"
)

// The billing platform's JSON is loosely typed: ids come back as numbers or
// strings, collections as {"item": [...]}, {"item": {...}}, [] or "". The
// types below normalize that at the adapter boundary.

type envelope struct {
	Result  string `json:"result"`
	Message string `json:"message"`
}

type flexString = clients.FlexString

// list decodes a value that is either a single object or an array of them.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isEmptyJSON(data) {
		*l = nil
		return nil
	}
	switch data[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
	case '{':
		var item T
		if err := json.Unmarshal(data, &item); err != nil {
			return err
		}
		*l = list[T]{item}
	default:
		return fmt.Errorf("unexpected collection shape %q", truncate(data, 32))
	}
	return nil
}

// nested decodes the platform's wrapped collections, e.g.
// "products": {"product": [...]}. The inner key is not checked.
type nested[T any] []T

func (n *nested[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isEmptyJSON(data) {
		*n = nil
		return nil
	}
	switch data[0] {
	case '[':
		var items list[T]
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*n = nested[T](items)
	case '{':
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		keys := make([]string, 0, len(inner))
		for k := range inner {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []T
		for _, k := range keys {
			var items list[T]
			if err := json.Unmarshal(inner[k], &items); err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			out = append(out, items...)
		}
		*n = out
	default:
		return fmt.Errorf("unexpected collection shape %q", truncate(data, 32))
	}
	return nil
}

func isEmptyJSON(data []byte) bool {
	return len(data) == 0 ||
		bytes.Equal(data, []byte("null")) ||
		bytes.Equal(data, []byte(`""`)) ||
		bytes.Equal(data, []byte("false"))
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}

func parseAmount(v flexString) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(string(v)))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// zeroDate filters the platform's "0000-00-00" placeholders.
func zeroDate(v flexString) string {
	s := strings.TrimSpace(string(v))
	if s == "" || strings.HasPrefix(s, "0000-00-00") {
		return ""
	}
	return s
}

type rawClient struct {
	ID        flexString `json:"id"`
	UserID    flexString `json:"userid"`
	ClientID  flexString `json:"client_id"`
	FirstName string     `json:"firstname"`
	LastName  string     `json:"lastname"`
	Email     string     `json:"email"`
	Status    string     `json:"status"`
}

func (c rawClient) id() string {
	for _, v := range []flexString{c.ID, c.ClientID, c.UserID} {
		if v != "" && v != "0" {
			return string(v)
		}
	}
	return ""
}

type rawClientDetails struct {
	rawClient
	Client *rawClient `json:"client"`
}

type rawClientList struct {
	TotalResults flexString        `json:"totalresults"`
	Clients      nested[rawClient] `json:"clients"`
}

type rawLogin struct {
	UserID   flexString `json:"userid"`
	UserID2  flexString `json:"user_id"`
	ClientID flexString `json:"client_id"`
}

type rawNamedValue struct {
	ID     flexString `json:"id"`
	Name   string     `json:"name"`
	Option string     `json:"option"`
	Value  flexString `json:"value"`
}

type rawService struct {
	ID              flexString            `json:"id"`
	Name            string                `json:"name"`
	TranslatedName  string                `json:"translated_name"`
	GroupName       string                `json:"groupname"`
	Domain          string                `json:"domain"`
	Status          string                `json:"status"`
	BillingCycle    string                `json:"billingcycle"`
	RecurringAmount flexString            `json:"recurringamount"`
	NextDueDate     flexString            `json:"nextduedate"`
	DedicatedIP     string                `json:"dedicatedip"`
	ServerIP        string                `json:"serverip"`
	ServerName      string                `json:"servername"`
	ServerHostname  string                `json:"serverhostname"`
	CustomFields    nested[rawNamedValue] `json:"customfields"`
	ConfigOptions   nested[rawNamedValue] `json:"configoptions"`
}

type rawServiceList struct {
	Products nested[rawService] `json:"products"`
}

type rawInvoice struct {
	ID             flexString `json:"id"`
	InvoiceNum     flexString `json:"invoicenum"`
	Date           flexString `json:"date"`
	DueDate        flexString `json:"duedate"`
	Total          flexString `json:"total"`
	Status         string     `json:"status"`
	PaymentMethod  string     `json:"paymentmethod"`
	CurrencyPrefix string     `json:"currencyprefix"`
}

type rawInvoiceList struct {
	Invoices nested[rawInvoice] `json:"invoices"`
}

type rawTicket struct {
	ID       flexString `json:"id"`
	TID      flexString `json:"tid"`
	DeptID   flexString `json:"deptid"`
	DeptName string     `json:"deptname"`
	Subject  string     `json:"subject"`
	Status   string     `json:"status"`
	Priority string     `json:"priority"`
	Date     flexString `json:"date"`
}

type rawTicketList struct {
	Tickets nested[rawTicket] `json:"tickets"`
}

type rawOpenTicket struct {
	ID  flexString `json:"id"`
	TID flexString `json:"tid"`
}

type rawDepartment struct {
	ID   flexString `json:"id"`
	Name string     `json:"name"`
}

type rawDepartmentList struct {
	Departments nested[rawDepartment] `json:"departments"`
}

type rawPricing struct {
	Prefix  string     `json:"prefix"`
	Monthly flexString `json:"monthly"`
}

type rawProduct struct {
	PID         flexString      `json:"pid"`
	GID         flexString      `json:"gid"`
	GroupName   string          `json:"groupname"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Pricing     json.RawMessage `json:"pricing"`
}

// monthly picks the monthly price for the preferred currency, or the first
// currency by code when it is absent. Disabled cycles (-1) read as zero.
func (p rawProduct) monthly(currency string) (decimal.Decimal, string) {
	var pricing map[string]rawPricing
	if err := json.Unmarshal(p.Pricing, &pricing); err != nil || len(pricing) == 0 {
		return decimal.Zero, ""
	}
	price, ok := pricing[currency]
	if !ok {
		codes := make([]string, 0, len(pricing))
		for code := range pricing {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		price = pricing[codes[0]]
	}
	amount := parseAmount(price.Monthly)
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount, price.Prefix
}

type rawProductList struct {
	Products nested[rawProduct] `json:"products"`
}
