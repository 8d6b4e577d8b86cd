package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"

	"github.com/dkessler/txvep/internal/annotate"
	"github.com/dkessler/txvep/internal/vcf"
)

// esDoc is the flattened document shape indexed for one annotation.
type esDoc struct {
	VariantID    string  `json:"variant_id"`
	Chrom        string  `json:"chrom"`
	Pos          int64   `json:"pos"`
	Ref          string  `json:"ref"`
	Alt          string  `json:"alt"`
	TranscriptID string  `json:"transcript_id,omitempty"`
	GeneName     string  `json:"gene_name,omitempty"`
	GeneID       string  `json:"gene_id,omitempty"`
	Consequence  string  `json:"consequence"`
	Impact       string  `json:"impact"`
	Tag          string  `json:"tag,omitempty"`
	Location     string  `json:"location,omitempty"`
	HGVSc        string  `json:"hgvsc,omitempty"`
	HGVSp        string  `json:"hgvsp,omitempty"`
	IsCanonical  bool    `json:"is_canonical"`
	Biotype      string  `json:"biotype,omitempty"`
	AlphaScore   float64 `json:"alphamissense_score,omitempty"`
}

// ESWriter is an AnnotationWriter that bulk-indexes annotations into
// Elasticsearch instead of writing a flat file. Documents are buffered and
// flushed in batches of flushSize, matching the bulk-request sizing every
// go-elasticsearch client guide recommends over one request per document.
type ESWriter struct {
	client    *elasticsearch.Client
	index     string
	flushSize int
	buf       bytes.Buffer
	pending   int
}

// NewESWriter builds a writer that indexes into the named index using an
// already-configured client (host, auth, TLS are the caller's concern).
func NewESWriter(client *elasticsearch.Client, index string) *ESWriter {
	return &ESWriter{client: client, index: index, flushSize: 500}
}

// WriteHeader is a no-op: Elasticsearch documents carry no shared header.
func (w *ESWriter) WriteHeader() error { return nil }

// Write appends one annotation document to the pending bulk buffer,
// flushing automatically once flushSize documents have accumulated.
func (w *ESWriter) Write(v *vcf.Variant, ann *annotate.Annotation) error {
	doc := esDoc{
		VariantID:    ann.VariantID,
		Chrom:        v.Chrom,
		Pos:          v.Pos,
		Ref:          v.Ref,
		Alt:          v.Alt,
		TranscriptID: ann.TranscriptID,
		GeneName:     ann.GeneName,
		GeneID:       ann.GeneID,
		Consequence:  ann.Consequence,
		Impact:       ann.Impact,
		Tag:          string(ann.Tag),
		Location:     ann.Location,
		HGVSc:        ann.HGVSc,
		HGVSp:        ann.HGVSp,
		IsCanonical:  ann.IsCanonical,
		Biotype:      ann.Biotype,
		AlphaScore:   ann.AlphaMissenseScore,
	}

	meta := map[string]map[string]string{"index": {"_index": w.index}}
	if err := json.NewEncoder(&w.buf).Encode(meta); err != nil {
		return fmt.Errorf("encode bulk meta: %w", err)
	}
	if err := json.NewEncoder(&w.buf).Encode(doc); err != nil {
		return fmt.Errorf("encode bulk doc: %w", err)
	}
	w.pending++

	if w.pending >= w.flushSize {
		return w.Flush()
	}
	return nil
}

// Flush submits any buffered documents as one bulk request.
func (w *ESWriter) Flush() error {
	if w.pending == 0 {
		return nil
	}

	req := esapi.BulkRequest{Body: bytes.NewReader(w.buf.Bytes())}
	res, err := req.Do(context.Background(), w.client)
	if err != nil {
		return fmt.Errorf("bulk index annotations: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index annotations: elasticsearch returned %s", res.Status())
	}

	w.buf.Reset()
	w.pending = 0
	return nil
}
