package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
	"regexp"
	"strconv"
)

// Object model for the subset of PDF we read. Streams keep their raw
// bytes next to the stream dictionary.

type name string

type ref struct {
	num int
	gen int
}

type dict map[string]any

type stream struct {
	dict dict
	raw  []byte
}

// document holds every indirect object keyed by object number, found
// by scanning for "N G obj ... endobj" rather than via the xref table.
// Scanning tolerates files whose xref offsets are stale.
type document struct {
	objects map[int]any
}

var objStartRe = regexp.MustCompile(`(?s)(\d+)\s+(\d+)\s+obj\b`)

func parseDocument(data []byte) (*document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("missing %%PDF header")
	}

	doc := &document{objects: make(map[int]any)}
	for _, loc := range objStartRe.FindAllSubmatchIndex(data, -1) {
		num, err := strconv.Atoi(string(data[loc[2]:loc[3]]))
		if err != nil {
			continue
		}
		body := data[loc[1]:]
		if end := bytes.Index(body, []byte("endobj")); end >= 0 {
			body = body[:end]
		}
		obj, err := parseObjectBody(body)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", num, err)
		}
		doc.objects[num] = obj
	}

	if len(doc.objects) == 0 {
		return nil, fmt.Errorf("no indirect objects found")
	}
	return doc, nil
}

// parseObjectBody parses one indirect object's body, attaching stream
// bytes when a "stream" keyword follows the dictionary.
func parseObjectBody(body []byte) (any, error) {
	lex := &lexer{data: body}
	obj, err := lex.value()
	if err != nil {
		return nil, err
	}

	d, ok := obj.(dict)
	if !ok {
		return obj, nil
	}

	lex.skipSpace()
	if !bytes.HasPrefix(body[lex.pos:], []byte("stream")) {
		return d, nil
	}
	raw := body[lex.pos+len("stream"):]
	if len(raw) > 0 && raw[0] == '\r' {
		raw = raw[1:]
	}
	if len(raw) > 0 && raw[0] == '\n' {
		raw = raw[1:]
	}
	if end := bytes.LastIndex(raw, []byte("endstream")); end >= 0 {
		raw = raw[:end]
	}
	// Trim the single EOL that precedes endstream. Anything more could
	// belong to the stream bytes.
	if n := len(raw); n > 0 && raw[n-1] == '\n' {
		raw = raw[:n-1]
	}
	if n := len(raw); n > 0 && raw[n-1] == '\r' {
		raw = raw[:n-1]
	}
	return &stream{dict: d, raw: raw}, nil
}

// resolve follows indirect references until a direct object remains.
func (doc *document) resolve(obj any) any {
	for i := 0; i < 32; i++ {
		r, ok := obj.(ref)
		if !ok {
			return obj
		}
		obj = doc.objects[r.num]
	}
	return nil
}

func (doc *document) resolveDict(obj any) dict {
	d, _ := doc.resolve(obj).(dict)
	return d
}

// catalog returns the document catalog, located by type rather than
// through the trailer.
func (doc *document) catalog() dict {
	for _, obj := range doc.objects {
		if d, ok := doc.resolve(obj).(dict); ok && d.name("Type") == "Catalog" {
			return d
		}
	}
	return nil
}

// pageNode is one leaf of the page tree with inherited attributes
// applied.
type pageNode struct {
	mediaBox  [4]float64
	contents  []*stream
	resources dict
}

// pageTree walks /Pages depth first and returns the leaves in display
// order. MediaBox and Resources inherit from intermediate nodes.
func (doc *document) pageTree() ([]pageNode, error) {
	root := doc.catalog()
	if root == nil {
		return nil, fmt.Errorf("no catalog")
	}
	pagesRoot := doc.resolveDict(root["Pages"])
	if pagesRoot == nil {
		return nil, fmt.Errorf("catalog has no page tree")
	}

	var pages []pageNode
	var walk func(node dict, inherited pageNode) error
	walk = func(node dict, inherited pageNode) error {
		if box, ok := doc.rect(node["MediaBox"]); ok {
			inherited.mediaBox = box
		}
		if res := doc.resolveDict(node["Resources"]); res != nil {
			inherited.resources = res
		}

		switch node.name("Type") {
		case "Pages":
			kids, _ := doc.resolve(node["Kids"]).([]any)
			for _, kid := range kids {
				child := doc.resolveDict(kid)
				if child == nil {
					return fmt.Errorf("page tree kid is not a dictionary")
				}
				if err := walk(child, inherited); err != nil {
					return err
				}
			}
			return nil
		case "Page":
			page := inherited
			page.contents = doc.contentStreams(node["Contents"])
			pages = append(pages, page)
			return nil
		default:
			return fmt.Errorf("unexpected page tree node type %q", node.name("Type"))
		}
	}

	if err := walk(pagesRoot, pageNode{mediaBox: [4]float64{0, 0, 612, 792}}); err != nil {
		return nil, err
	}
	return pages, nil
}

// contentStreams resolves /Contents, which may be one stream or an
// array of streams.
func (doc *document) contentStreams(obj any) []*stream {
	switch v := doc.resolve(obj).(type) {
	case *stream:
		return []*stream{v}
	case []any:
		var out []*stream
		for _, item := range v {
			if s, ok := doc.resolve(item).(*stream); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// decode returns the stream bytes after applying its filter chain.
// Only FlateDecode and unfiltered streams are supported; anything
// else is reported so the caller can fail the page.
func (doc *document) decode(s *stream) ([]byte, error) {
	var filters []string
	switch f := doc.resolve(s.dict["Filter"]).(type) {
	case name:
		filters = []string{string(f)}
	case []any:
		for _, item := range f {
			if n, ok := doc.resolve(item).(name); ok {
				filters = append(filters, string(n))
			}
		}
	}

	data := s.raw
	for _, filter := range filters {
		switch filter {
		case "FlateDecode":
			zr, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("flate stream: %w", err)
			}
			inflated, err := io.ReadAll(zr)
			zr.Close()
			if err != nil {
				return nil, fmt.Errorf("flate stream: %w", err)
			}
			data = inflated
		default:
			return nil, fmt.Errorf("unsupported stream filter %q", filter)
		}
	}
	return data, nil
}

// rect reads a 4-element number array.
func (doc *document) rect(obj any) ([4]float64, bool) {
	arr, ok := doc.resolve(obj).([]any)
	if !ok || len(arr) != 4 {
		return [4]float64{}, false
	}
	var box [4]float64
	for i, item := range arr {
		n, ok := doc.resolve(item).(float64)
		if !ok {
			return [4]float64{}, false
		}
		box[i] = n
	}
	return box, true
}

func (d dict) name(key string) string {
	n, _ := d[key].(name)
	return string(n)
}
