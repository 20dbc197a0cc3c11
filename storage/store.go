package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"realty_backoffice/auth"
	"realty_backoffice/errs"
)

// Collection names one logical document collection.
type Collection string

const (
	Listings  Collection = "listings"
	Inquiries Collection = "inquiries"
)

// ErrNotFound is returned by backends when no document has the given id.
var ErrNotFound = errors.New("document not found")

// Backend is a flat key/document store. Documents are JSON objects keyed by string id.
type Backend interface {
	Get(ctx context.Context, coll Collection, id string) (json.RawMessage, error)
	Scan(ctx context.Context, coll Collection) ([]json.RawMessage, error)
	Put(ctx context.Context, coll Collection, id string, doc json.RawMessage) error
	// Update merges the top-level keys of patch into the stored document.
	Update(ctx context.Context, coll Collection, id string, patch json.RawMessage) error
	Delete(ctx context.Context, coll Collection, id string) error
	Close() error
}

// Tables maps collections onto physical table names.
type Tables map[Collection]string

func DefaultTables() Tables {
	return Tables{Listings: "Listings", Inquiries: "Inquiries"}
}

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (t Tables) name(coll Collection) (string, error) {
	name, ok := t[coll]
	if !ok {
		return "", fmt.Errorf("unknown collection %q", coll)
	}
	if !tableNameRegex.MatchString(name) {
		return "", fmt.Errorf("invalid table name %q", name)
	}
	return name, nil
}

// Gateway hands out store clients. The public client is limited to what anonymous
// visitors may do; the admin client requires a valid session.
type Gateway struct {
	backend Backend
	now     func() time.Time
}

func NewGateway(backend Backend) *Gateway {
	return &Gateway{backend: backend, now: time.Now}
}

func (g *Gateway) Public() *Client {
	return &Client{backend: g.backend}
}

// Admin returns an authenticated client, or AuthRequired when ctx carries no live session.
func (g *Gateway) Admin(ctx context.Context) (*Client, error) {
	session, ok := auth.SessionFromContext(ctx)
	if !ok || !session.Valid(g.now()) {
		return nil, errs.AuthRequired("administrator session required")
	}
	return &Client{backend: g.backend, admin: true}, nil
}

func (g *Gateway) Close() error {
	return g.backend.Close()
}

// Client performs document operations with the permissions it was issued with.
type Client struct {
	backend Backend
	admin   bool
}

func (c *Client) IsAdmin() bool {
	return c.admin
}

func (c *Client) allow(op string, coll Collection) error {
	if c.admin {
		return nil
	}
	switch {
	case coll == Listings && (op == "get" || op == "scan"):
		return nil
	case coll == Inquiries && op == "put":
		return nil
	}
	return errs.AuthRequired(fmt.Sprintf("%s on %s requires an administrator session", op, coll))
}

// GetDocument decodes the document with id into out.
func (c *Client) GetDocument(ctx context.Context, coll Collection, id string, out any) error {
	if err := c.allow("get", coll); err != nil {
		return err
	}

	raw, err := c.backend.Get(ctx, coll, id)
	if errors.Is(err, ErrNotFound) {
		return errs.NotFound("%s %s not found", coll, id)
	}
	if err != nil {
		return errs.Store(fmt.Sprintf("get %s", coll), err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.Store(fmt.Sprintf("decode %s %s", coll, id), err)
	}
	return nil
}

// ScanDocuments returns every document in the collection.
func (c *Client) ScanDocuments(ctx context.Context, coll Collection) ([]json.RawMessage, error) {
	if err := c.allow("scan", coll); err != nil {
		return nil, err
	}

	docs, err := c.backend.Scan(ctx, coll)
	if err != nil {
		return nil, errs.Store(fmt.Sprintf("scan %s", coll), err)
	}
	return docs, nil
}

// PutDocument writes doc under id, replacing any existing document.
func (c *Client) PutDocument(ctx context.Context, coll Collection, id string, doc any) error {
	if err := c.allow("put", coll); err != nil {
		return err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return errs.Store(fmt.Sprintf("encode %s %s", coll, id), err)
	}
	if err := c.backend.Put(ctx, coll, id, raw); err != nil {
		return errs.Store(fmt.Sprintf("put %s", coll), err)
	}
	return nil
}

// UpdateAttributes sets the given top-level attributes without rewriting the document.
func (c *Client) UpdateAttributes(ctx context.Context, coll Collection, id string, attrs map[string]any) error {
	if err := c.allow("update", coll); err != nil {
		return err
	}

	patch, err := json.Marshal(attrs)
	if err != nil {
		return errs.Store(fmt.Sprintf("encode %s patch", coll), err)
	}
	err = c.backend.Update(ctx, coll, id, patch)
	if errors.Is(err, ErrNotFound) {
		return errs.NotFound("%s %s not found", coll, id)
	}
	if err != nil {
		return errs.Store(fmt.Sprintf("update %s", coll), err)
	}
	return nil
}

// DeleteDocument removes id. Deleting a missing id is not an error.
func (c *Client) DeleteDocument(ctx context.Context, coll Collection, id string) error {
	if err := c.allow("delete", coll); err != nil {
		return err
	}
	if err := c.backend.Delete(ctx, coll, id); err != nil {
		return errs.Store(fmt.Sprintf("delete %s", coll), err)
	}
	return nil
}
