// Package clinote classifies clinical free text into broad disease
// categories with a local BERT-style sequence classifier.
//
// Quick start:
//
//	c, err := clinote.New(ctx, clinote.WithModel("emilyalsentzer/Bio_ClinicalBERT"))
//	if err != nil {
//	    log.Fatal(err) // wraps clinote.ErrModelUnavailable
//	}
//	defer c.Close()
//
//	r, _ := c.Analyze("HbA1c 9.2%, polyuria and polydipsia")
//	fmt.Println(r) // three-line report
//
// Models are resolved from a local directory, the on-disk cache, or the
// model hub, in that order. The Clinote instance is safe for concurrent use.
// Create once, reuse across requests.
package clinote
