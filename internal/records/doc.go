// Package records reads and writes the four flat account files: passwd(5),
// shadow(5), group(5) and gshadow(5).
//
// Each kind is exposed through a Source, a restartable sequence of parsed
// records, and a Sink, which rewrites the whole file from a stream of
// records. FileSet backs them with host files, Memory with slices.
package records
