// Package supabase builds PostgREST queries against a Supabase project and
// sends them through the host HTTP capabilities.
//
//	db := supabase.New("https://xyz.supabase.co").WithHeader("apikey", key)
//	resp, err := db.From("tokens").
//	    Auth(jwt).
//	    Select("mint,symbol").
//	    Order("symbol.asc").
//	    Limit(10).
//	    Execute()
package supabase

import (
	"strconv"
	"strings"

	"github.com/space-operator/space-go/envelope"
	"github.com/space-operator/space-go/fetch"
	"github.com/space-operator/space-go/hostcall"
)

const (
	preferRepresentation = "return=representation"
	preferMerge          = "return=representation,resolution=merge-duplicates"
	singleObject         = "application/vnd.pgrst.object+json"
)

// Client holds the project URL and headers sent with every query.
type Client struct {
	url     string
	headers []envelope.FormField
	client  *hostcall.Client
}

// New returns a client for the project at url.
func New(url string) *Client {
	return &Client{url: strings.TrimRight(url, "/")}
}

// WithHeader adds a header sent with every query, typically apikey.
func (c *Client) WithHeader(header, value string) *Client {
	c.headers = append(c.headers, envelope.Field(header, value))
	return c
}

// WithClient sends queries through hc instead of the default client.
func (c *Client) WithClient(hc *hostcall.Client) *Client {
	c.client = hc
	return c
}

// From starts a query on table. It reads rows unless a write is chosen.
func (c *Client) From(table string) *Builder {
	return &Builder{
		client:  c,
		table:   table,
		method:  envelope.MethodGet,
		headers: append([]envelope.FormField(nil), c.headers...),
	}
}

// Builder is one query.
type Builder struct {
	client  *Client
	table   string
	method  envelope.Method
	body    *string
	headers []envelope.FormField
	queries []envelope.FormField
}

func (b *Builder) header(name, value string) *Builder {
	b.headers = append(b.headers, envelope.Field(name, value))
	return b
}

func (b *Builder) query(name, value string) *Builder {
	b.queries = append(b.queries, envelope.Field(name, value))
	return b
}

// Auth sends token as a bearer token.
func (b *Builder) Auth(token string) *Builder {
	return b.header("Authorization", "Bearer "+token)
}

// Select limits the returned columns.
func (b *Builder) Select(columns string) *Builder {
	return b.query("select", columns)
}

// Order sorts the result, e.g. "created_at.desc".
func (b *Builder) Order(columns string) *Builder {
	return b.query("order", columns)
}

// Limit returns at most count rows. A count below one is ignored.
func (b *Builder) Limit(count int) *Builder {
	if count < 1 {
		return b
	}
	return b.Range(0, count-1)
}

// Range returns rows low through high, inclusive.
func (b *Builder) Range(low, high int) *Builder {
	b.header("Range-Unit", "items")
	return b.header("Range", strconv.Itoa(low)+"-"+strconv.Itoa(high))
}

func (b *Builder) count(method string) *Builder {
	b.header("Range-Unit", "items")
	b.header("Range", "0-0")
	return b.header("Prefer", "count="+method)
}

// ExactCount asks for an exact row count in the Content-Range header.
func (b *Builder) ExactCount() *Builder { return b.count("exact") }

// PlannedCount asks for the planner's row estimate.
func (b *Builder) PlannedCount() *Builder { return b.count("planned") }

// EstimatedCount asks for an exact count up to a threshold, then an estimate.
func (b *Builder) EstimatedCount() *Builder { return b.count("estimated") }

// Single returns one object instead of an array.
func (b *Builder) Single() *Builder {
	return b.header("Accept", singleObject)
}

// Insert writes body, a JSON row or array of rows.
func (b *Builder) Insert(body string) *Builder {
	return b.write(envelope.MethodPost, preferRepresentation, body)
}

// Upsert inserts body, merging rows that conflict.
func (b *Builder) Upsert(body string) *Builder {
	return b.write(envelope.MethodPost, preferMerge, body)
}

// OnConflict names the columns an upsert resolves conflicts on.
func (b *Builder) OnConflict(columns string) *Builder {
	return b.query("on_conflict", columns)
}

// Update patches matching rows with body.
func (b *Builder) Update(body string) *Builder {
	return b.write(envelope.MethodPatch, preferRepresentation, body)
}

// Delete removes matching rows.
func (b *Builder) Delete() *Builder {
	b.method = envelope.MethodDelete
	return b.header("Prefer", preferRepresentation)
}

// Filter adds a column filter, e.g. Filter("eq", "symbol", "SOL").
func (b *Builder) Filter(operator, column, value string) *Builder {
	return b.query(column, operator+"."+value)
}

// Not adds a negated column filter.
func (b *Builder) Not(operator, column, value string) *Builder {
	return b.query(column, "not."+operator+"."+value)
}

func (b *Builder) write(method envelope.Method, prefer, body string) *Builder {
	b.method = method
	b.body = &body
	return b.header("Prefer", prefer)
}

// URL returns the endpoint the query is sent to.
func (b *Builder) URL() string {
	return b.client.url + "/rest/v1/" + b.table
}

// Request returns the fetch request the query sends.
func (b *Builder) Request() *fetch.Request {
	req := fetch.New(b.URL(), b.method)
	if b.client.client != nil {
		req.WithClient(b.client.client)
	}
	for _, h := range b.headers {
		req.Set(h.Name(), h.Value())
	}
	for _, q := range b.queries {
		req.Query(q.Name(), q.Value())
	}
	return req
}

// Execute sends the query. Writes carry their body as text.
func (b *Builder) Execute() (*fetch.Response, error) {
	req := b.Request()
	if b.body != nil {
		return req.SendString(*b.body)
	}
	return req.Call()
}
