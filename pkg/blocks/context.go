package blocks

import (
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/models"
	"github.com/zzyra-io/zzyra-sei-sub011/pkg/template"
)

// TemplateData exposes the execution context to block config templates.
func TemplateData(execCtx models.ExecutionContext) template.Data {
	return template.Data{
		ExecutionID: execCtx.ExecutionID,
		WorkflowID:  execCtx.WorkflowID,
		TriggerData: execCtx.TriggerData,
		Variables:   execCtx.Variables,
		NodeOutputs: execCtx.NodeOutputs,
	}
}

// ExpressionData is the document handed to the sandboxed interpreter by
// condition and custom blocks: the same view as templates, flattened into
// one map.
func ExpressionData(execCtx models.ExecutionContext) map[string]any {
	return map[string]any{
		"trigger_data": execCtx.TriggerData,
		"variables":    execCtx.Variables,
		"vars":         execCtx.Variables,
		"nodes":        execCtx.NodeOutputs,
	}
}
