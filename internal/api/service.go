package api

import (
	"bytes"
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/samcharles93/graft/internal/input"
	"github.com/samcharles93/graft/internal/logger"
	"github.com/samcharles93/graft/internal/schema"
	"github.com/samcharles93/graft/pkg/layout"
	"github.com/samcharles93/graft/pkg/structio"
)

// ServiceConfig configures a DecodeService.
type ServiceConfig struct {
	// Profiles are consulted before the built-in set.
	Profiles []layout.Profile
	// DefaultProfile is used when a request names neither a profile nor a
	// layout. Empty means layout.Default.
	DefaultProfile string
	StrictPadding  bool
	Logger         logger.Logger
}

// DecodeService decodes request payloads. Every call gets its own
// structio.Session, so a service is safe for concurrent use.
type DecodeService struct {
	cfg ServiceConfig
	log logger.Logger
}

func NewDecodeService(cfg ServiceConfig) *DecodeService {
	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &DecodeService{cfg: cfg, log: log}
}

// Profiles lists the built-in profiles merged with the configured ones.
func (s *DecodeService) Profiles() []layout.Profile {
	return layout.Merge(s.cfg.Profiles)
}

func (s *DecodeService) Decode(ctx context.Context, req *DecodeRequest) (*DecodeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sch, sess, err := s.prepare(req.Profile, req.Layout, req.Schema, req.Record)
	if err != nil {
		return nil, err
	}
	comp, err := input.ParseCompression(req.Compression)
	if err != nil {
		return nil, err
	}
	rc, err := input.Wrap(io.NopCloser(bytes.NewReader(req.Data)), comp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	defer func() { _ = rc.Close() }()
	if err := sess.OpenReader(rc, "request"); err != nil {
		return nil, err
	}
	defer func() { _ = sess.Close() }()

	resp := &DecodeResponse{
		ID:     newDecodeID(),
		Object: "decode",
		Record: req.Record,
	}
	log := s.log.With("id", resp.ID)

	var values schema.Values
	if req.Record == "" {
		values, err = sch.DecodeStream(sess)
	} else {
		values, err = sch.Decode(sess, req.Record)
		if err == nil && req.Exhaustive {
			err = sess.VerifyExhausted()
		}
		resp.Size = sess.LastSize()
	}
	if err != nil {
		log.Debug("decode failed", "offset", sess.Offset(), "error", err)
		return nil, err
	}

	resp.Offset = sess.Offset()
	resp.Values = values
	log.Debug("decoded", "record", req.Record, "bytes", len(req.Data))
	return resp, nil
}

func (s *DecodeService) Size(ctx context.Context, req *SizeRequest) (*SizeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Record == "" {
		return nil, newInvalidRequest("record is required")
	}
	sch, sess, err := s.prepare(req.Profile, req.Layout, req.Schema, req.Record)
	if err != nil {
		return nil, err
	}
	n, err := sch.Size(sess, req.Record)
	if err != nil {
		return nil, err
	}
	return &SizeResponse{Object: "size", Record: req.Record, Size: n}, nil
}

// prepare resolves the layout and schema shared by every request kind.
func (s *DecodeService) prepare(profile string, override *layout.Config, raw json.RawMessage, record string) (*schema.Schema, *structio.Session, error) {
	cfg, err := s.resolveLayout(profile, override)
	if err != nil {
		return nil, nil, err
	}
	sch, err := parseSchema(raw)
	if err != nil {
		return nil, nil, err
	}
	if record != "" {
		if _, ok := sch.Record(record); !ok {
			return nil, nil, newInvalidRequest(fmt.Sprintf("schema has no record %q", record))
		}
	}
	opts := []structio.Option{structio.WithLogger(s.log)}
	if s.cfg.StrictPadding {
		opts = append(opts, structio.WithStrictPadding())
	}
	sess, err := structio.New(cfg, opts...)
	if err != nil {
		return nil, nil, err
	}
	return sch, sess, nil
}

func (s *DecodeService) resolveLayout(profile string, override *layout.Config) (layout.Config, error) {
	if override != nil {
		if profile != "" {
			return layout.Config{}, newInvalidRequest("profile and layout are mutually exclusive")
		}
		if err := override.Validate(); err != nil {
			return layout.Config{}, err
		}
		return *override, nil
	}
	if profile == "" {
		profile = s.cfg.DefaultProfile
	}
	if profile == "" {
		return layout.Default(), nil
	}
	p, err := layout.Lookup(profile, s.cfg.Profiles)
	if err != nil {
		return layout.Config{}, err
	}
	return p.Layout()
}

// parseSchema accepts a schema object or a YAML document in a JSON string.
func parseSchema(raw json.RawMessage) (*schema.Schema, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, newInvalidRequest("schema is required")
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, newInvalidRequest("schema: " + err.Error())
		}
		return schema.Parse([]byte(text), "yaml")
	}
	return schema.Parse(raw, "json")
}
