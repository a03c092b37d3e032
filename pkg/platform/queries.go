package platform

const (
	listRecipesQuery = `query GetCustomRecipes($usecase: IdOrKey!) {
  customRecipes(useCase: $usecase) {
    id
    key
    name
    description
    createdAt
  }
}`

	getRecipeQuery = `query GetRecipe($usecase: IdOrKey!, $idOrKey: IdOrKey!) {
  customRecipe(useCase: $usecase, idOrKey: $idOrKey) {
    id
    key
    name
    description
    jsonSchema
  }
}`

	getJobQuery = `query GetJob($id: UUID!) {
  job(id: $id) {
    id
    name
    status
    error
    createdAt
    recipe {
      name
    }
    stages {
      name
      status
      info {
        __typename
        ... on TrainingJobStageOutput {
          processedNumSamples
          totalNumSamples
        }
        ... on EvalJobStageOutput {
          processedNumSamples
          totalNumSamples
        }
        ... on BatchInferenceJobStageOutput {
          processedNumSamples
          totalNumSamples
        }
      }
    }
  }
}`

	listJobsQuery = `query ListJobs($filter: ListJobsFilterInput, $page: CursorPageInput!, $order: [OrderPair!]) {
  jobs(filter: $filter, page: $page, order: $order) {
    nodes {
      id
      name
      status
      createdAt
      recipe {
        name
      }
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

	cancelJobMutation = `mutation CancelJob($jobId: UUID!) {
  cancelJob(id: $jobId) {
    id
    status
  }
}`

	listModelsQuery = `query ListModels($usecase: IdOrKey!) {
  useCase(idOrKey: $usecase) {
    modelServices {
      id
      key
      name
      isDefault
      status
    }
  }
}`

	listAllModelsQuery = `query ListAllModels {
  models {
    id
    key
    name
    online
    isExternal
  }
}`

	runRecipeMutation = `mutation RunCustomRecipe($input: JobInput!) {
  createJob(input: $input) {
    id
    name
    status
  }
}`

	createDatasetFromMultipartMutation = `mutation CreateDatasetFromMultipart($input: DatasetCreateFromMultipartUpload!) {
  createDatasetFromMultipartUpload(input: $input) {
    datasetId
    key
  }
}`

	uploadDatasetMutation = `mutation UploadDataset($usecase: IdOrKey!, $file: Upload!, $name: String, $key: String) {
  createDataset(input: {useCase: $usecase, name: $name, key: $key, file: $file}) {
    id
    key
  }
}`

	publishRecipeMutation = `mutation PublishCustomRecipe($usecase: IdOrKey!, $file: Upload!, $name: String, $key: String) {
  createCustomRecipe(useCase: $usecase, file: $file, name: $name, key: $key) {
    id
    key
    name
    description
    createdAt
  }
}`
)
