// Package tasksource feeds tasks into the queue from files.
//
// LoadFile reads a newline-delimited task file. Watcher watches an inbox
// directory and submits every line of each *.txt file dropped into it, then
// moves the file into the processed/ subdirectory.
package tasksource
