package render

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/></Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/></Relationships>`

// buildDocx produces a word document: the task label as a heading
// followed by one paragraph per line of body text.
func buildDocx(heading, body string) ([]byte, error) {
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	// Heading: bold, 16pt (sz is half-points).
	fmt.Fprintf(&doc,
		`<w:p><w:pPr><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:pPr><w:r><w:rPr><w:b/><w:sz w:val="32"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`,
		escapeXML(heading))

	for _, line := range strings.Split(body, "\n") {
		if strings.TrimSpace(line) == "" {
			doc.WriteString(`<w:p/>`)
			continue
		}
		fmt.Fprintf(&doc,
			`<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`,
			escapeXML(line))
	}

	doc.WriteString(`<w:sectPr/></w:body></w:document>`)

	return writeZip(map[string]string{
		"[Content_Types].xml": docxContentTypes,
		"_rels/.rels":         docxRootRels,
		"word/document.xml":   doc.String(),
	})
}

// writeZip assembles an OOXML package. [Content_Types].xml must be the
// first entry in the archive.
func writeZip(parts map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	order := []string{"[Content_Types].xml"}
	for name := range parts {
		if name != "[Content_Types].xml" {
			order = append(order, name)
		}
	}

	for _, name := range order {
		w, err := zw.Create(name)
		if err != nil {
			return nil, fmt.Errorf("create zip entry %s: %w", name, err)
		}
		if _, err := w.Write([]byte(parts[name])); err != nil {
			return nil, fmt.Errorf("write zip entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize package: %w", err)
	}
	return buf.Bytes(), nil
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
