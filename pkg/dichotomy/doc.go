// Package dichotomy implements a bounded, stateful bisection search for the
// boundary between admissible and inadmissible values of a control variable.
//
// A search is driven by an Engine. Each iteration the Engine asks its Strategy
// whether the Index has converged and, if not, which value to probe next. The
// value is realized on an isolated working view of the caller's Scenario by a
// Shifter and then judged by an Evaluator. The resulting Outcome is recorded in
// the Index. The loop stops on convergence, when the iteration budget is spent,
// on a fatal evaluation error, or when an interruption is requested.
//
// Validity is assumed to be monotonic in the search variable: values below the
// boundary are secure and values above it are not. The Index enforces this on
// every record and reports a violation instead of accepting it.
//
// Basic usage:
//
//	engine, err := dichotomy.NewEngine(dichotomy.EngineConfig[Assessment, dichotomy.Scalar]{
//		Min:           -1000,
//		Max:           1000,
//		Precision:     50,
//		MaxIterations: 20,
//		Strategy:      dichotomy.RangeDivision[dichotomy.Scalar]{StartWithMin: true},
//		Shifter:       shifter,
//		Evaluator:     evaluator,
//	})
//	if err != nil {
//		return err
//	}
//	result, err := engine.Run(ctx, network)
package dichotomy
