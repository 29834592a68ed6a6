// Package imdb only holds the version of the set of tools to prepare the IMDB
// movie-review sentiment corpus for training with GoMLX (or any other framework).
//
// There are 4 main sub-packages:
//
//   - dataset: to download and cache the raw corpus files (word index and review shards).
//   - vocab: to build the sentinel-reserving vocabulary index used to encode and decode reviews.
//   - sequence: to normalize variable-length review sequences to a fixed length.
//   - classifier: the narrow contract with the training/evaluation collaborator.
package imdb

// Version of the library.
// Manually kept in sync with project releases.
var Version = "v0.0.0-dev"
