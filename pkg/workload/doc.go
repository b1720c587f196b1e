/*
Package workload parses the two XML catalogs described in the external
interfaces section: the Jobs catalog (one <job> template per job class,
carrying its Flink runner/jar command line) and the Experiment catalog (an
ordered <suite><experiment> list of job references that seeds the initial
queue), grounded on yarn_workloader.py's Jobs/Experiment classes.

Instantiate resolves a job template against an Experiment entry, producing
a types.Application ready to enqueue. The TEMP and DATASET text placeholders
in the jar arguments are substituted later, by CommandLine, with a scratch
path and the application's dataset tag respectively.
*/
package workload
