// Package classifier provides the pretrained evidence classifier.
//
// The model is a logistic regression over standardised evidence metrics,
// loaded from a JSON file produced by an offline training job:
//
//	{
//	  "name": "mt-logreg-v3",
//	  "features": ["spectral.cutoff_hz", "tempo.interval_cv"],
//	  "mean": [17800, 0.04],
//	  "scale": [2100, 0.03],
//	  "weights": [-1.2, -0.8],
//	  "bias": 0.1
//	}
//
// Inference is funnelled through a Queue whose single goroutine owns the
// model, so callers on any number of goroutines see serialised access.
package classifier
