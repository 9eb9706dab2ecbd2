package report

import (
	"fmt"

	"github.com/beevik/etree"
)

// Serializer renders result trees as XML documents, optionally appending a
// signature element computed over the unsigned serialization.
type Serializer struct {
	signer *Signer
}

// NewSerializer constructs a Serializer. signer may be nil, in which case
// documents are emitted unsigned.
func NewSerializer(signer *Signer) *Serializer {
	return &Serializer{signer: signer}
}

// Signing reports whether documents will carry a signature element. The
// flag participates in result-cache keys: signed and unsigned renderings
// of the same query are distinct artifacts.
func (s *Serializer) Signing() bool {
	return s.signer != nil
}

// Serialize renders root as an XML document. With pretty set the output is
// indented; otherwise it is compact. Formatting never affects the signed
// content, which is always computed over the compact form.
func (s *Serializer) Serialize(root *Node, pretty bool) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	buildElement(&doc.Element, root)

	if s.signer != nil {
		compact, err := doc.WriteToBytes()
		if err != nil {
			return nil, fmt.Errorf("serialize report: %w", err)
		}
		signature, err := s.signer.Sign(compact)
		if err != nil {
			return nil, fmt.Errorf("sign report: %w", err)
		}
		sig := doc.Root().CreateElement("Signature")
		sig.CreateElement("Value").SetText(signature)
		sig.CreateElement("Certificate").SetText(s.signer.CertificateBase64())
	}

	if pretty {
		doc.Indent(2)
	}
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize report: %w", err)
	}
	return out, nil
}

func buildElement(parent *etree.Element, node *Node) {
	elem := parent.CreateElement(node.Name)
	for _, attr := range node.Attrs {
		elem.CreateAttr(attr.Key, attr.Value)
	}
	if node.Text != "" {
		elem.SetText(node.Text)
	}
	for _, child := range node.Children {
		buildElement(elem, child)
	}
}

// Error renders the uniform error payload returned to clients.
func Error(msg string) *Node {
	root := NewNode("Data")
	root.AddString("Error", msg)
	return root
}
