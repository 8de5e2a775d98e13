package pdf

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const flateFilter = "FlateDecode"

var disableConfigDir sync.Once

// Pdfcpu implements Codec on top of pdfcpu.
type Pdfcpu struct{}

// NewPdfcpu returns a pdfcpu backed codec. pdfcpu's on-disk configuration
// directory is disabled; defaults are built in.
func NewPdfcpu() *Pdfcpu {
	disableConfigDir.Do(api.DisableConfigDir)
	return &Pdfcpu{}
}

func (c *Pdfcpu) config() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

type pdfcpuDocument struct {
	path string
	file *os.File
	ctx  *model.Context
}

func (d *pdfcpuDocument) Path() string   { return d.path }
func (d *pdfcpuDocument) PageCount() int { return d.ctx.PageCount }
func (d *pdfcpuDocument) Close() error   { return d.file.Close() }

func (c *Pdfcpu) Open(path string) (Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	ctx, err := api.ReadAndValidate(file, c.config())
	if err != nil {
		_ = file.Close()
		return nil, &Error{Op: "open", Path: path, Err: err}
	}
	return &pdfcpuDocument{path: path, file: file, ctx: ctx}, nil
}

func (c *Pdfcpu) document(src Document) (*pdfcpuDocument, error) {
	doc, ok := src.(*pdfcpuDocument)
	if !ok || doc == nil {
		return nil, &Error{Op: "use", Err: fmt.Errorf("document %T was not opened by this codec", src)}
	}
	return doc, nil
}

func (c *Pdfcpu) ExtractPages(src Document, r PageRange, outPath string) error {
	doc, err := c.document(src)
	if err != nil {
		return err
	}
	if !r.Within(doc.PageCount()) {
		return &Error{Op: "extract", Path: doc.path, Err: fmt.Errorf("range %s outside 1-%d", r, doc.PageCount())}
	}
	if _, err := doc.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := api.Trim(doc.file, out, []string{r.String()}, c.config()); err != nil {
		_ = out.Close()
		_ = os.Remove(outPath)
		return &Error{Op: "extract", Path: doc.path, Err: err}
	}
	return out.Close()
}

func (c *Pdfcpu) AppendPages(src Document, outPath string) error {
	doc, err := c.document(src)
	if err != nil {
		return err
	}
	if err := api.MergeAppendFile([]string{doc.path}, outPath, false, c.config()); err != nil {
		return &Error{Op: "append", Path: doc.path, Err: err}
	}
	return nil
}

func (c *Pdfcpu) Write(src Document, outPath string, opts WriteOptions) error {
	doc, err := c.document(src)
	if err != nil {
		return err
	}
	if err := recompressStreams(doc.ctx.XRefTable, opts.Level); err != nil {
		return &Error{Op: "compress", Path: doc.path, Err: err}
	}
	doc.ctx.WriteObjectStream = opts.FullCompression
	doc.ctx.WriteXRefStream = opts.FullCompression
	if err := api.OptimizeContext(doc.ctx); err != nil {
		return &Error{Op: "optimize", Path: doc.path, Err: err}
	}
	if err := api.WriteContextFile(doc.ctx, outPath); err != nil {
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return err
		}
		return &Error{Op: "write", Path: outPath, Err: err}
	}
	return nil
}

// recompressStreams re-encodes plain Flate and unfiltered streams at level and keeps
// whichever encoding is smaller. Streams with predictors or other filters are left alone.
func recompressStreams(xref *model.XRefTable, level int) error {
	if level < zlib.BestSpeed || level > zlib.BestCompression {
		return fmt.Errorf("compression level %d out of range", level)
	}
	for _, entry := range xref.Table {
		if entry == nil || entry.Free || entry.Object == nil {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok || len(sd.Raw) == 0 || skipStream(sd) {
			continue
		}

		var content []byte
		switch {
		case len(sd.FilterPipeline) == 0 && sd.Dict["Filter"] == nil:
			content = sd.Raw
		case len(sd.FilterPipeline) == 1 && sd.FilterPipeline[0].Name == flateFilter && sd.FilterPipeline[0].DecodeParms == nil:
			zr, err := zlib.NewReader(bytes.NewReader(sd.Raw))
			if err != nil {
				continue
			}
			content, err = io.ReadAll(zr)
			_ = zr.Close()
			if err != nil {
				continue
			}
		default:
			continue
		}

		var buf bytes.Buffer
		zw, err := zlib.NewWriterLevel(&buf, level)
		if err != nil {
			return err
		}
		if _, err := zw.Write(content); err != nil {
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		if buf.Len() >= len(sd.Raw) {
			continue
		}

		length := int64(buf.Len())
		sd.Raw = buf.Bytes()
		sd.Content = content
		sd.StreamLength = &length
		sd.StreamLengthObjNr = nil
		sd.FilterPipeline = []types.PDFFilter{{Name: flateFilter}}
		sd.Dict["Filter"] = types.Name(flateFilter)
		sd.Dict["Length"] = types.Integer(buf.Len())
		entry.Object = sd
	}
	return nil
}

func skipStream(sd types.StreamDict) bool {
	name, ok := sd.Dict["Type"].(types.Name)
	if !ok {
		return false
	}
	switch name {
	case "XRef", "ObjStm", "Metadata":
		return true
	}
	return false
}
