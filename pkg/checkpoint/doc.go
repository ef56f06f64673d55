// Package checkpoint persists crawl graphs so that an interrupted crawl
// resumes where it stopped.
//
// Each target has exactly one checkpoint; every save overwrites it. Two
// backends exist:
//   - file: <dir>/<target>_graph.json, replaced atomically on each save
//   - sqlite: one row per target in <dir>/igcrawler.db
//
// The default directory is $XDG_DATA_HOME/igcrawler/checkpoints.
package checkpoint
