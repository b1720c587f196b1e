/*
Package config loads the cluster configuration and the static job-group
table that back a scheduler process.

Config is read from YAML via gopkg.in/yaml.v3, matching cmd/warren/apply.go's
yaml.Unmarshal pattern: a single top-level document with resource_manager,
stat_collector, server, scheduler, estimator and nodes sections. JobGroups
and the Slot1/Slot2 labels are compiled-in data, grounded on
job_group_data.py, since the reference workload's job→group mapping never
changed across experiments; which node belongs to which slot comes from the
config file's nodes section (see SlotIndex).
*/
package config
