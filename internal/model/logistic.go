package model

import (
	"fmt"
	"math"

	"flureport/domain/core"
	"flureport/domain/stats"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LogisticSmoother fits a binomial GLM with a logit link to a binned
// outcome view and evaluates the fitted probability curve with a pointwise
// 95% confidence band over an x-grid. The fit is plain maximum likelihood
// via iteratively reweighted least squares, no regularization, with
// per-group weights from the binned view.
type LogisticSmoother struct {
	MaxIter    int
	Tol        float64
	GridPoints int
}

// NewLogisticSmoother creates a smoother with conventional settings.
func NewLogisticSmoother() *LogisticSmoother {
	return &LogisticSmoother{MaxIter: 25, Tol: 1e-8, GridPoints: 100}
}

// Fit estimates intercept and slope from the weighted group rates and
// returns the evaluated curve. Degenerate inputs (fewer than two distinct
// covariate values, zero-variance outcome pushing the weights to zero)
// surface as coded errors rather than NaN curves.
func (s *LogisticSmoother) Fit(binned *stats.BinnedOutcome) (*stats.LogisticCurve, error) {
	pts := binned.Points
	if len(pts) == 0 {
		return nil, core.NewEmptySampleError(binned.Covariate.String())
	}
	if len(pts) < 2 {
		return nil, core.ErrSingularFit
	}

	// A zero-variance outcome has no finite MLE; IRLS would walk the
	// intercept toward infinity instead of converging.
	allZero, allOne := true, true
	for _, pt := range pts {
		if pt.Rate > 0 {
			allZero = false
		}
		if pt.Rate < 1 {
			allOne = false
		}
	}
	if allZero || allOne {
		return nil, fmt.Errorf("%w: outcome %s has zero variance", core.ErrDegenerateSample, binned.Outcome)
	}

	n := len(pts)
	xs := make([]float64, n)
	ys := make([]float64, n)
	ws := make([]float64, n)
	for i, p := range pts {
		xs[i] = p.X
		ys[i] = p.Rate
		ws[i] = float64(p.Weight)
	}

	beta, cov, iters, err := irls(xs, ys, ws, s.MaxIter, s.Tol)
	if err != nil {
		return nil, err
	}

	curve := &stats.LogisticCurve{
		Covariate:  binned.Covariate,
		Outcome:    binned.Outcome,
		Intercept:  beta[0],
		Slope:      beta[1],
		Iterations: iters,
	}

	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.975)
	minX, maxX := xs[0], xs[0]
	for _, x := range xs {
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
	}

	grid := s.GridPoints
	if grid < 2 {
		grid = 2
	}
	step := (maxX - minX) / float64(grid-1)
	for i := 0; i < grid; i++ {
		x := minX + float64(i)*step
		eta := beta[0] + beta[1]*x
		// Var(eta) = [1 x] Cov [1 x]'
		varEta := cov.At(0, 0) + 2*x*cov.At(0, 1) + x*x*cov.At(1, 1)
		se := math.Sqrt(math.Max(varEta, 0))
		curve.Points = append(curve.Points, stats.CurvePoint{
			X:     x,
			P:     sigmoid(eta),
			Lower: sigmoid(eta - z*se),
			Upper: sigmoid(eta + z*se),
		})
	}
	return curve, nil
}

// irls runs iteratively reweighted least squares for the two-parameter
// logit model and returns coefficients plus the inverse Fisher information.
func irls(xs, ys, ws []float64, maxIter int, tol float64) (beta [2]float64, cov *mat.SymDense, iters int, err error) {
	n := len(xs)
	design := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		design.Set(i, 0, 1)
		design.Set(i, 1, xs[i])
	}

	for iters = 1; iters <= maxIter; iters++ {
		// Working response and IRLS weights at the current estimate.
		wDiag := mat.NewDiagDense(n, nil)
		zVec := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			eta := beta[0] + beta[1]*xs[i]
			mu := clampProb(sigmoid(eta))
			v := mu * (1 - mu)
			wDiag.SetDiag(i, ws[i]*v)
			zVec.SetVec(i, eta+(ys[i]-mu)/v)
		}

		// Normal equations: (X'WX) delta-target = X'Wz
		var xtw, xtwx mat.Dense
		xtw.Mul(design.T(), wDiag)
		xtwx.Mul(&xtw, design)

		var xtwz mat.VecDense
		xtwz.MulVec(&xtw, zVec)

		var next mat.VecDense
		if solveErr := next.SolveVec(&xtwx, &xtwz); solveErr != nil {
			return beta, nil, iters, core.ErrSingularFit
		}

		delta := math.Max(math.Abs(next.AtVec(0)-beta[0]), math.Abs(next.AtVec(1)-beta[1]))
		beta[0], beta[1] = next.AtVec(0), next.AtVec(1)

		if delta < tol {
			var inv mat.Dense
			if invErr := inv.Inverse(&xtwx); invErr != nil {
				return beta, nil, iters, core.ErrSingularFit
			}
			cov = mat.NewSymDense(2, []float64{
				inv.At(0, 0), inv.At(0, 1),
				inv.At(1, 0), inv.At(1, 1),
			})
			return beta, cov, iters, nil
		}
	}
	return beta, nil, maxIter, core.ErrNoConvergence
}

func sigmoid(eta float64) float64 {
	return 1 / (1 + math.Exp(-eta))
}

// clampProb keeps fitted probabilities away from 0 and 1 so the IRLS
// variance never divides by zero under quasi-separation.
func clampProb(p float64) float64 {
	const eps = 1e-10
	return math.Min(math.Max(p, eps), 1-eps)
}
