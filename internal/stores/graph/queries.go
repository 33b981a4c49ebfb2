package graph

const (
	queryUpsertUser = `
		MERGE (u:User {userID: $userID})
		SET u.fullName = $fullName,
		    u.email = $email,
		    u.regID = CASE WHEN $regID = '' THEN u.regID ELSE $regID END,
		    u.registrationCategory = $category`

	queryDeleteUser = `
		MATCH (u:User {userID: $userID})
		DETACH DELETE u
		RETURN count(u) AS deleted`

	queryUserExists = `
		MATCH (u:User {userID: $userID})
		RETURN count(u) AS found`

	queryMergeSkill = `
		MATCH (u:User {userID: $userID})
		MERGE (s:Skill {name: $name})
		MERGE (u)-[r:HAS_SKILL]->(s)
		ON CREATE SET r.assignedAt = datetime()
		ON MATCH SET r.updatedAt = datetime()
		SET r.validFrom = $validFrom, r.validTo = $validTo`

	queryMergeExpertise = `
		MATCH (u:User {userID: $userID})
		MERGE (x:Expertise {name: $name})
		MERGE (u)-[r:HAS_EXPERTISE]->(x)
		ON CREATE SET r.assignedAt = datetime()
		ON MATCH SET r.updatedAt = datetime()
		SET r.validFrom = $validFrom, r.validTo = $validTo`

	queryMergeInterest = `
		MATCH (u:User {userID: $userID})
		MERGE (i:Interest {name: $name})
		MERGE (u)-[r:HAS_INTEREST]->(i)
		ON CREATE SET r.assignedAt = datetime()
		ON MATCH SET r.updatedAt = datetime()
		SET r.validFrom = $validFrom, r.validTo = $validTo`

	// Transcripts replace the extracted sets rather than adding to them
	queryClearExtracted = `
		MATCH (u:User {userID: $userID})
		OPTIONAL MATCH (u)-[r:HAS_SKILL|HAS_INTEREST|HAS_EXPERTISE]->()
		DELETE r`

	querySetJobRole = `
		MATCH (u:User {userID: $userID})
		OPTIONAL MATCH (u)-[old:HAS_CURRENT_ROLE]->(:JobRole)
		DELETE old
		WITH DISTINCT u
		MERGE (j:JobRole {title: $title})
		MERGE (u)-[r:HAS_CURRENT_ROLE]->(j)
		ON CREATE SET r.assignedAt = datetime()
		ON MATCH SET r.updatedAt = datetime()`

	// The previous employer is kept as WORKED_AT so it still counts towards demographics
	querySetCompany = `
		MATCH (u:User {userID: $userID})
		OPTIONAL MATCH (u)-[w:WORKS_AT]->(prev:Company)
		WHERE prev.name <> $name
		FOREACH (_ IN CASE WHEN prev IS NULL THEN [] ELSE [1] END | MERGE (u)-[:WORKED_AT]->(prev))
		DELETE w
		WITH DISTINCT u
		MERGE (c:Company {name: $name})
		MERGE (u)-[r:WORKS_AT]->(c)
		SET r.isCurrent = true, r.validFrom = $validFrom, r.validTo = $validTo
		WITH u, c
		OPTIONAL MATCH (u)-[old:WORKED_AT]->(c)
		DELETE old`

	querySetLocation = `
		MATCH (u:User {userID: $userID})
		OPTIONAL MATCH (u)-[old:LIVES_IN]->(:Location)
		DELETE old
		WITH DISTINCT u
		MERGE (l:Location {name: $name})
		ON CREATE SET l.type = 'City'
		MERGE (u)-[:LIVES_IN]->(l)`

	queryMergeUniversity = `
		MATCH (u:User {userID: $userID})
		MERGE (un:University {name: $name})
		MERGE (u)-[:STUDIED_AT]->(un)`

	queryMergeIndustry = `
		MATCH (u:User {userID: $userID})
		MERGE (i:Industry {name: $name})
		MERGE (u)-[:DESIRES_INDUSTRY]->(i)`

	querySetYears = `
		MATCH (u:User {userID: $userID})
		SET u.yearsOfExperience = $years`

	queryUpsertConference = `
		MERGE (c:Conference {conferenceID: $conferenceID})
		SET c.name = $name
		WITH c
		FOREACH (_ IN CASE WHEN $location = '' THEN [] ELSE [1] END |
			MERGE (l:Location {name: $location})
			MERGE (c)-[:HELD_IN]->(l))
		WITH c
		OPTIONAL MATCH (o:User {userID: $organizerID})
		FOREACH (_ IN CASE WHEN o IS NULL THEN [] ELSE [1] END | MERGE (o)-[:ORGANIZES]->(c))`

	queryUpsertEvent = `
		MERGE (e:Event {eventID: $eventID})
		SET e.title = $title, e.eventType = $eventType
		WITH e
		OPTIONAL MATCH (c:Conference {conferenceID: $conferenceID})
		FOREACH (_ IN CASE WHEN c IS NULL THEN [] ELSE [1] END | MERGE (c)-[:HAS_EVENT]->(e))
		WITH e
		FOREACH (topic IN $topics |
			MERGE (t:Topic {name: topic})
			MERGE (e)-[:COVERS_TOPIC]->(t))
		WITH e
		OPTIONAL MATCH (o:User {userID: $organizerID})
		FOREACH (_ IN CASE WHEN o IS NULL THEN [] ELSE [1] END | MERGE (o)-[:ORGANIZES]->(e))`

	queryLinkPresenter = `
		MATCH (u:User {userID: $userID}), (e:Event {eventID: $eventID})
		MERGE (u)-[:PRESENTS_AT]->(e)`

	// Only exhibitions can have exhibitors
	queryLinkExhibitor = `
		MATCH (u:User {userID: $userID}), (e:Event {eventID: $eventID})
		WHERE e.eventType = 'exhibition'
		MERGE (u)-[:EXHIBITS_AT]->(e)`

	queryRegister = `
		MATCH (u:User {userID: $userID})
		MERGE (c:Conference {conferenceID: $conferenceID})
		MERGE (u)-[r:REGISTERED_FOR]->(c)
		SET r.regId = $regID`

	queryAttend = `
		MATCH (u:User {userID: $userID}), (e:Event {eventID: $eventID})
		MERGE (u)-[a:ATTENDS]->(e)
		SET a.status = $status`

	queryFeedback = `
		MATCH (u:User {userID: $userID}), (e:Event {eventID: $eventID})
		MERGE (u)-[f:GAVE_FEEDBACK]->(e)
		SET f.isInterested = $interested`

	queryRecommendDemographics = `
		MATCH (u:User {userID: $userID})-[r:SIMILAR_DEMO]-(other:User)
		WHERE other.userID <> $userID AND r.score > 0
		WITH u, other, max(r.score) AS score
		OPTIONAL MATCH (other)-[:HAS_CURRENT_ROLE]->(role:JobRole)
		WITH u, other, score, head(collect(role.title)) AS role
		OPTIONAL MATCH (u)-[:WORKS_AT|WORKED_AT]->(c:Company)<-[:WORKS_AT|WORKED_AT]-(other)
		WITH u, other, score, role, collect(DISTINCT c.name) AS companies
		OPTIONAL MATCH (u)-[:LIVES_IN]->(l:Location)<-[:LIVES_IN]-(other)
		WITH u, other, score, role, companies, collect(DISTINCT l.name) AS locations
		OPTIONAL MATCH (u)-[:STUDIED_AT]->(un:University)<-[:STUDIED_AT]-(other)
		RETURN other.userID AS UserID, other.fullName AS RecommendedUser, role AS Role,
		       other.yearsOfExperience AS YearsExperience, score AS SimilarityScore,
		       companies AS SharedCompanies, locations AS SharedLocations,
		       collect(DISTINCT un.name) AS SharedUniversities
		ORDER BY SimilarityScore DESC, UserID
		LIMIT $limit`

	queryRecommendInterests = `
		MATCH (u:User {userID: $userID})-[r:SIMILAR_INTEREST]-(other:User)
		WHERE other.userID <> $userID AND r.score > 0
		WITH u, other, max(r.score) AS score
		OPTIONAL MATCH (other)-[:HAS_CURRENT_ROLE]->(role:JobRole)
		WITH u, other, score, head(collect(role.title)) AS role
		OPTIONAL MATCH (u)-[:HAS_INTEREST]->(i:Interest)<-[:HAS_INTEREST]-(other)
		RETURN other.userID AS UserID, other.fullName AS RecommendedUser, role AS Role,
		       other.yearsOfExperience AS YearsExperience, score AS SimilarityScore,
		       collect(DISTINCT i.name) AS CommonInterests
		ORDER BY SimilarityScore DESC, UserID
		LIMIT $limit`

	queryRecommendSkills = `
		MATCH (u:User {userID: $userID})-[r:SIMILAR_SKILL]-(other:User)
		WHERE other.userID <> $userID AND r.score > 0
		WITH u, other, max(r.score) AS score
		OPTIONAL MATCH (other)-[:HAS_CURRENT_ROLE]->(role:JobRole)
		WITH u, other, score, head(collect(role.title)) AS role
		OPTIONAL MATCH (u)-[:HAS_SKILL]->(s:Skill)<-[:HAS_SKILL]-(other)
		RETURN other.userID AS UserID, other.fullName AS RecommendedUser, role AS Role,
		       other.yearsOfExperience AS YearsExperience, score AS SimilarityScore,
		       collect(DISTINCT s.name) AS CommonSkills
		ORDER BY SimilarityScore DESC, UserID
		LIMIT $limit`

	queryRecommendEvents = `
		MATCH (u:User {userID: $userID})
		OPTIONAL MATCH (u)-[:HAS_INTEREST]->(i:Interest)
		WITH u, collect(DISTINCT toLower(i.name)) AS interests
		OPTIONAL MATCH (u)-[:DESIRES_INDUSTRY]->(ind:Industry)
		WITH u, interests + collect(DISTINCT toLower(ind.name)) AS wanted
		MATCH (e:Event)-[:COVERS_TOPIC]->(t:Topic)
		WHERE toLower(t.name) IN wanted
		  AND NOT (u)-[:ATTENDS]->(e)
		  AND NOT (u)-[:GAVE_FEEDBACK {isInterested: false}]->(e)
		WITH e, collect(DISTINCT t.name) AS matched
		OPTIONAL MATCH (c:Conference)-[:HAS_EVENT]->(e)
		RETURN e.eventID AS EventID, head(collect(c.conferenceID)) AS ConferenceID,
		       e.title AS Title, e.eventType AS EventType, matched AS MatchedTopics,
		       toFloat(size(matched)) AS Score
		ORDER BY Score DESC, Title, EventID
		LIMIT $limit`

	queryLabels = `CALL db.labels() YIELD label RETURN collect(label) AS values`

	queryRelationshipTypes = `CALL db.relationshipTypes() YIELD relationshipType RETURN collect(relationshipType) AS values`

	queryGraphExists = `CALL gds.graph.exists($name) YIELD exists RETURN exists`

	queryGraphDrop = `CALL gds.graph.drop($name, false) YIELD graphName RETURN graphName`

	queryGraphProject = `
		CALL gds.graph.project($name, $labels, $relationships)
		YIELD graphName, nodeCount, relationshipCount
		RETURN graphName, nodeCount, relationshipCount`

	queryNodeSimilarityWrite = `
		CALL gds.nodeSimilarity.write($name, {
			writeRelationshipType: $writeType,
			writeProperty: 'score',
			topK: $topK,
			similarityCutoff: $cutoff
		})
		YIELD nodesCompared, relationshipsWritten
		RETURN nodesCompared, relationshipsWritten`

	// Relationship types cannot be parameterised; %s is always a Projection.WriteType
	queryDeleteSimilarities = `
		MATCH ()-[r:%s]->()
		DELETE r`
)
