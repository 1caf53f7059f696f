package shape

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/nyaws/awsclient/internal/model"
)

// EncodeXML renders v as an XML document rooted at rootName, walking
// shapeName's shape graph. Grounded on the same "recurse the shape graph,
// emit elements for members in declared order" idiom the JSON encoder uses;
// the rest-xml protocol writes its request bodies through this walker.
func EncodeXML(svc *model.Service, shapeName, rootName string, v interface{}) ([]byte, error) {
	sh := svc.Shape(shapeName)
	if sh == nil {
		return nil, fmt.Errorf("shape: unknown shape %q", shapeName)
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	if err := writeXMLElement(&buf, svc, sh, rootName, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeXMLElement(buf *bytes.Buffer, svc *model.Service, sh *model.Shape, tag string, v interface{}) error {
	switch sh.Kind {
	case model.KindStructure:
		m, _ := v.(map[string]interface{})
		fmt.Fprintf(buf, "<%s>", tag)
		for _, name := range sh.MemberOrder {
			member := sh.Members[name]
			raw, present := m[name]
			if !present {
				continue
			}
			memberShape := svc.MemberShape(member)
			childTag := member.LocationName
			if childTag == "" {
				childTag = name
			}
			if err := writeXMLElement(buf, svc, memberShape, childTag, raw); err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "</%s>", tag)
	case model.KindList:
		list, _ := v.([]interface{})
		elemShape := svc.MemberShape(sh.ListMember)
		elemTag := sh.ListMember.LocationName
		if elemTag == "" {
			elemTag = "member"
		}
		if sh.Flattened {
			for _, elem := range list {
				if err := writeXMLElement(buf, svc, elemShape, tag, elem); err != nil {
					return err
				}
			}
			return nil
		}
		fmt.Fprintf(buf, "<%s>", tag)
		for _, elem := range list {
			if err := writeXMLElement(buf, svc, elemShape, elemTag, elem); err != nil {
				return err
			}
		}
		fmt.Fprintf(buf, "</%s>", tag)
	case model.KindMap:
		m, _ := v.(map[string]interface{})
		valueShape := svc.MemberShape(sh.MapValue)
		fmt.Fprintf(buf, "<%s>", tag)
		for k, elem := range m {
			buf.WriteString("<entry><key>")
			xml.EscapeText(buf, []byte(k))
			buf.WriteString("</key>")
			if err := writeXMLElement(buf, svc, valueShape, "value", elem); err != nil {
				return err
			}
			buf.WriteString("</entry>")
		}
		fmt.Fprintf(buf, "</%s>", tag)
	case model.KindBlob:
		b, err := toBytes(v)
		if err != nil {
			return err
		}
		fmt.Fprintf(buf, "<%s>%s</%s>", tag, Base64Encode(b), tag)
	default:
		s, err := ToWireString(sh, v, "rest-xml", "")
		if err != nil {
			return err
		}
		buf.WriteString("<" + tag + ">")
		xml.EscapeText(buf, []byte(s))
		buf.WriteString("</" + tag + ">")
	}
	return nil
}

// xmlNode is a generic, shape-agnostic parse of an XML document: each
// element's children are collected by tag name, repeated tags becoming a
// slice. This mirrors the teacher's legacy x2j "walk a generic tree" idiom
// (see DESIGN.md) without depending on that 2015-era GOPATH vendor tree.
type xmlNode struct {
	text     string
	children map[string][]*xmlNode
}

func parseXMLNode(data []byte) (*xmlNode, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var root *xmlNode
	var stack []*xmlNode
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &xmlNode{children: map[string][]*xmlNode{}}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				name := t.Name.Local
				parent.children[name] = append(parent.children[name], n)
			} else {
				root = n
			}
			stack = append(stack, n)
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text += string(t)
			}
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	if root == nil {
		return &xmlNode{children: map[string][]*xmlNode{}}, nil
	}
	return root, nil
}

// DecodeXML parses an XML document's root element according to shapeName's
// shape graph.
func DecodeXML(svc *model.Service, shapeName string, data []byte) (interface{}, error) {
	sh := svc.Shape(shapeName)
	if sh == nil {
		return nil, fmt.Errorf("shape: unknown shape %q", shapeName)
	}
	data = StripBOM(data)
	if len(bytes.TrimSpace(data)) == 0 {
		return defaultForShape(sh), nil
	}
	root, err := parseXMLNode(data)
	if err != nil {
		return nil, err
	}
	return decodeXMLNode(svc, sh, root)
}

func decodeXMLNode(svc *model.Service, sh *model.Shape, n *xmlNode) (interface{}, error) {
	if n == nil {
		return defaultForShape(sh), nil
	}
	switch sh.Kind {
	case model.KindStructure:
		out := make(map[string]interface{}, len(sh.Members))
		for name, member := range sh.Members {
			tag := member.LocationName
			if tag == "" {
				tag = name
			}
			kids := n.children[tag]
			if len(kids) == 0 {
				continue
			}
			memberShape := svc.MemberShape(member)
			if memberShape.Kind == model.KindList && memberShape.Flattened {
				// flattened list: repeated <tag> elements at this level are
				// the list items themselves.
				elems := make([]interface{}, 0, len(kids))
				elemShape := svc.MemberShape(memberShape.ListMember)
				for _, kid := range kids {
					v, err := decodeXMLNode(svc, elemShape, kid)
					if err != nil {
						return nil, err
					}
					elems = append(elems, v)
				}
				out[name] = elems
				continue
			}
			decoded, err := decodeXMLNode(svc, memberShape, kids[0])
			if err != nil {
				return nil, fmt.Errorf("shape: member %s: %w", name, err)
			}
			out[name] = decoded
		}
		return out, nil
	case model.KindList:
		elemShape := svc.MemberShape(sh.ListMember)
		elemTag := sh.ListMember.LocationName
		if elemTag == "" {
			elemTag = "member"
		}
		kids := n.children[elemTag]
		out := make([]interface{}, 0, len(kids))
		for _, kid := range kids {
			v, err := decodeXMLNode(svc, elemShape, kid)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case model.KindMap:
		valueShape := svc.MemberShape(sh.MapValue)
		out := map[string]interface{}{}
		for _, entry := range n.children["entry"] {
			keys := entry.children["key"]
			values := entry.children["value"]
			if len(keys) == 0 || len(values) == 0 {
				continue
			}
			v, err := decodeXMLNode(svc, valueShape, values[0])
			if err != nil {
				return nil, err
			}
			out[strings.TrimSpace(keys[0].text)] = v
		}
		return out, nil
	case model.KindBlob:
		return Base64Decode(strings.TrimSpace(n.text))
	default:
		return FromWireString(sh, strings.TrimSpace(n.text))
	}
}
