package cmd

import "go.uber.org/fx"

var Module = fx.Module("cli",
	fx.Provide(
		fx.Annotate(cancelCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(configCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(jobCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(jobsCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(modelsCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(publishCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(recipesCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(runCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(schemaCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(setAPIKeyCmd, fx.ResultTags(`group:"commands"`)),
		fx.Annotate(uploadCmd, fx.ResultTags(`group:"commands"`)),
	),
	fx.Invoke(Run),
)
