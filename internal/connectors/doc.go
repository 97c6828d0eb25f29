// Package connectors holds adapters that pull datapoints from outside
// sources into datasets. The filesystem connector watches a folder and
// uploads every supported file it sees.
package connectors
