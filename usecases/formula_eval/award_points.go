package formula_eval

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"

	"github.com/incentiva/campaign-engine/models"
	"github.com/incentiva/campaign-engine/usecases/payload"
)

// ComputeAwardPoints evaluates an AwardPoints formula and converts the
// result to a whole point amount. A negative result is rejected rather
// than zeroed, so a formula bug is distinguishable from a deliberate
// zero-value award.
func ComputeAwardPoints(reader payload.FieldReader, params models.AwardPointsParams) (int64, error) {
	value, err := EvaluateFormula(reader, params.Ast)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, errors.Wrap(models.ErrNegativePointAward,
			fmt.Sprintf("formula %q produced %f", params.Formula, value))
	}
	return int64(math.Round(value)), nil
}
