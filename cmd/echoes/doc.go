// Command echoes turns meeting recordings into a transcript, a summary, key
// points and action items, and can optionally file tasks and schedule a
// follow-up.
//
// Commands:
//
//	echoes process <audio>   run the pipeline on one recording
//	echoes watch [dir]       process recordings as they appear in a directory
//	echoes doctor            check binaries, directories and credentials
//	echoes config init|show|validate
//	echoes staging list|clean
//	echoes test-notify       send a test push notification
//
// A .env file in the working directory is loaded before configuration, so
// credentials such as TASK_MANAGER_API_KEY can live outside config.toml.
package main
