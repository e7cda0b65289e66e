package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/videotube/internal/domain/entity"
	"github.com/oksasatya/videotube/pkg/apperror"
	"github.com/oksasatya/videotube/pkg/helpers"
)

// ChannelSearch indexes channels into Elasticsearch and queries them.
// A nil client disables both directions.
type ChannelSearch struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewChannelSearch(es *elasticsearch.Client, index string, logger *logrus.Logger) *ChannelSearch {
	if logger == nil {
		logger = helpers.NewNopLogger()
	}
	return &ChannelSearch{ES: es, Index: index, Logger: logger}
}

func (s *ChannelSearch) enabled() bool { return s != nil && s.ES != nil && s.Index != "" }

func (s *ChannelSearch) IndexChannel(ctx context.Context, u *entity.User) error {
	if !s.enabled() {
		return nil
	}
	b, err := json.Marshal(NewChannelDoc(u))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: s.Index, DocumentID: u.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("index channel %s: %s", u.ID, res.Status())
	}
	return nil
}

// Search runs a multi_match over username and full name. size is clamped to 1..50.
func (s *ChannelSearch) Search(ctx context.Context, q string, size int) ([]ChannelDoc, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.BadRequest("Search query is required")
	}
	if !s.enabled() {
		return []ChannelDoc{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "fullName"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.Index), s.ES.Search.WithBody(bytes.NewReader(b)))
	if err != nil {
		return nil, s.fail(err)
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.IsError() {
		return nil, s.fail(fmt.Errorf("search %s: %s", s.Index, res.Status()))
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string     `json:"_id"`
				Source ChannelDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, s.fail(err)
	}

	out := make([]ChannelDoc, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		doc := h.Source
		if doc.ID == "" {
			doc.ID = h.ID
		}
		out = append(out, doc)
	}
	return out, nil
}

func (s *ChannelSearch) fail(err error) error {
	helpers.LogError(s.Logger, "channel search failed", err, logrus.Fields{"index": s.Index})
	return apperror.Internal("Channel search is unavailable", err)
}

var _ ChannelIndexer = (*ChannelSearch)(nil)
