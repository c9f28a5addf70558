package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tieubaoca/compliance-be/types"
)

// ExtractionService is the document extraction collaborator: it partitions
// a source file into an ordered sequence of typed elements. Assumed
// deterministic enough to re-chunk safely on re-index.
type ExtractionService interface {
	Extract(ctx context.Context, filePath string) ([]types.Element, error)
}

// UnstructuredClient calls an Unstructured-compatible partition API.
type UnstructuredClient struct {
	url    string
	apiKey string
	client *http.Client
}

func NewUnstructuredClient(url, apiKey string) *UnstructuredClient {
	return &UnstructuredClient{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 5 * time.Minute},
	}
}

// rawElement mirrors the partition API's wire format.
type rawElement struct {
	Type      string `json:"type"`
	ElementID string `json:"element_id"`
	Text      string `json:"text"`
	Metadata  struct {
		PageNumber int    `json:"page_number"`
		TextAsHTML string `json:"text_as_html"`
	} `json:"metadata"`
}

func (c *UnstructuredClient) Extract(ctx context.Context, filePath string) ([]types.Element, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", filepath.Base(filePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	writer.WriteField("strategy", "hi_res")
	writer.WriteField("pdf_infer_table_structure", "true")
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("unstructured-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("extraction failed: status %d: %s", resp.StatusCode, string(data))
	}

	var raw []rawElement
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode extraction response: %w", err)
	}

	elements := make([]types.Element, 0, len(raw))
	for _, r := range raw {
		elem := types.Element{
			ID:         r.ElementID,
			Kind:       mapElementKind(r.Type),
			Text:       r.Text,
			PageNumber: r.Metadata.PageNumber,
		}
		if elem.Kind == types.ElementTable {
			elem.HTML = r.Metadata.TextAsHTML
		}
		elements = append(elements, elem)
	}
	return elements, nil
}

func mapElementKind(t string) types.ElementKind {
	switch t {
	case "Title":
		return types.ElementTitle
	case "Header":
		return types.ElementHeader
	case "Table":
		return types.ElementTable
	case "ListItem":
		return types.ElementListItem
	case "Footer":
		return types.ElementFooter
	case "FigureCaption":
		return types.ElementFigureCaption
	case "PageBreak":
		return types.ElementPageBreak
	default:
		return types.ElementNarrativeText
	}
}
