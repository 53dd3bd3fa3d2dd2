package ooxml

import (
	_ "embed"
)

// Fixed container parts shared by every generated document. The document
// body and the core properties are built per document; everything else is
// static.

//go:embed parts/content_types.xml
var partContentTypes []byte

//go:embed parts/package_rels.xml
var partPackageRels []byte

//go:embed parts/document_rels.xml
var partDocumentRels []byte

//go:embed parts/app.xml
var partAppProps []byte

//go:embed parts/styles.xml
var partStyles []byte

//go:embed parts/numbering.xml
var partNumbering []byte
