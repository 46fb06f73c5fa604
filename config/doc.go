// Package config provides configuration loading logic.
//
// The config file is a YAML document on the form:
//
//	transforms:
//	  - env
//	config:
//	  monitor:
//	    logLevel: info
//	  server:
//	    address: localhost:8080
//	  cloud:
//	    provider: mock
//	  checkSchedule: '@every 1m'
//	  agents:
//	    - name: builder-1
//	      usageLimit: 10
//	      lifeCyclePolicy:
//	        provider: ec2
//	        idleMinutes: '-2'
//
// Transforms are applied in order to the config object, before it's validated
// against ConfigSchema(). Each transform is a TransformationProvider
// registered by a sub-package, the "env" transform replaces objects on the
// form {$env: VAR} with the value of the environment variable VAR. Keys not in
// ConfigSchema() are dropped after transforms have run, so they can be used to
// hold options for transforms.
package config
