package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/ObiAU/techpulse/internal/httpclient"
)

// SupabaseStore inserts rows through the PostgREST endpoint of a Supabase
// project. The table is expected to have a pulse_data column; id and
// created_at are left to the database.
type SupabaseStore struct {
	baseURL string
	key     string
	table   string
	client  *httpclient.Client
}

func NewSupabaseStore(baseURL, key, table string, client *httpclient.Client) *SupabaseStore {
	return &SupabaseStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		table:   table,
		client:  client,
	}
}

func (s *SupabaseStore) Insert(ctx context.Context, row Row) error {
	err := s.client.SendAndParse(ctx, &httpclient.RequestOptions{
		Method: "POST",
		URL:    fmt.Sprintf("%s/rest/v1/%s", s.baseURL, s.table),
		Headers: map[string]string{
			"apikey":        s.key,
			"Authorization": "Bearer " + s.key,
			"Prefer":        "return=minimal",
		},
		Body: []map[string]string{{"pulse_data": row.PulseData}},
	}, nil)
	if err != nil {
		return fmt.Errorf("supabase insert into %s: %w", s.table, err)
	}
	return nil
}

func (s *SupabaseStore) Name() string {
	return "supabase"
}

func (s *SupabaseStore) Close() error {
	return nil
}
