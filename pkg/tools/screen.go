package tools

import (
	"context"

	"github.com/maesd-ai/maesd/pkg/errors"
	"github.com/maesd-ai/maesd/pkg/screen"
)

// ScreenTool exposes the structural microenvironment comparison through the
// tool registry.
func ScreenTool() *Func {
	return NewFunc("smr_screen", "Compare a designed structure against its natural template and score the SMR ratio",
		func(ctx context.Context, input any) (any, error) {
			params, ok := input.(map[string]any)
			if !ok {
				return nil, errors.New(errors.CodeInvalidInput, "expected parameter map", nil)
			}
			designPDB, _ := params["design_pdb"].(string)
			naturalPDB, _ := params["natural_pdb"].(string)
			resID, _ := params["design_resid"].(float64)
			radius, _ := params["radius"].(float64)
			if designPDB == "" || naturalPDB == "" || resID == 0 {
				return nil, errors.New(errors.CodeInvalidInput,
					"design_pdb, natural_pdb and design_resid are required", nil)
			}
			return screen.Compare(designPDB, naturalPDB, int(resID), radius)
		})
}
