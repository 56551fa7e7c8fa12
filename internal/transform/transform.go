// Package transform exposes the two transformation entry points of the
// service: BPMN XML to PNML XML and back. Everything else in this subtree is
// implementation detail of the two pipelines.
package transform

import (
	"github.com/woped/model-transformer/internal/transform/bpmn"
	"github.com/woped/model-transformer/internal/transform/bpmntopnml"
	"github.com/woped/model-transformer/internal/transform/pnml"
	"github.com/woped/model-transformer/internal/transform/pnmltobpmn"
	"github.com/woped/model-transformer/internal/transform/util"
)

// BPMNToPNML parses BPMN XML, transforms it into a WoPeD workflow net and
// returns the serialized PNML as a single line with an XML declaration.
func BPMNToPNML(bpmnXML string) (string, error) {
	defs, err := bpmn.Parse(bpmnXML)
	if err != nil {
		return "", err
	}
	doc, err := bpmntopnml.Transform(defs)
	if err != nil {
		return "", err
	}
	out, err := pnml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return util.CleanXMLString(out), nil
}

// PNMLToBPMN parses PNML XML, transforms it into BPMN and returns the
// serialized model as a single line with an XML declaration.
func PNMLToBPMN(pnmlXML string) (string, error) {
	doc, err := pnml.Parse(pnmlXML)
	if err != nil {
		return "", err
	}
	defs, err := pnmltobpmn.Transform(doc)
	if err != nil {
		return "", err
	}
	out, err := bpmn.Marshal(defs)
	if err != nil {
		return "", err
	}
	return util.CleanXMLString(out), nil
}
