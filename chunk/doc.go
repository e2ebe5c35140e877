// Package chunk cuts extracted document text into token-bounded, overlapping
// pieces ready for embedding.
//
// Splitting is a pure function of the input segments and the configured
// bounds: the same document chunked twice yields byte-identical chunk
// boundaries. The tokenizer is a self-contained word tokenizer so results
// never depend on downloaded encoder tables.
package chunk
